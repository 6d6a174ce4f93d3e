package handlers

import (
	"net/http"

	"github.com/inihikam/ngobrol/internal/api/middleware"
	"github.com/inihikam/ngobrol/internal/models"
)

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in models.CreateUserInput
	if err := decode(r, &in); err != nil {
		h.Error(w, err)
		return
	}

	resp, err := h.auth.Register(r.Context(), &in)
	if err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if err := decode(r, &in); err != nil {
		h.Error(w, err)
		return
	}

	resp, err := h.auth.Login(r.Context(), &in)
	if err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}

	user, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout. The token stays valid until
// expiry; only presence changes.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}

	if err := h.auth.Logout(r.Context(), userID); err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// UpdateProfile handles PUT /api/users/me.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}

	var patch models.UserPatch
	if derr := decode(r, &patch); derr != nil {
		h.Error(w, derr)
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusOK, user)
}
