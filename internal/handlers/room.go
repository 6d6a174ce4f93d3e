package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inihikam/ngobrol/internal/api/middleware"
	"github.com/inihikam/ngobrol/internal/apperr"
	"github.com/inihikam/ngobrol/internal/models"
)

func roomID(r *http.Request) (uuid.UUID, *apperr.Error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Validation(map[string][]string{"id": {"Invalid room ID format"}})
	}
	return id, nil
}

// ListRooms handles GET /api/rooms with page/per_page query params.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}

	page := int64(1)
	if v, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64); err == nil && v > 0 {
		page = v
	}
	perPage := int64(20)
	if v, err := strconv.ParseInt(r.URL.Query().Get("per_page"), 10, 64); err == nil && v > 0 {
		perPage = v
	}
	if perPage > 100 {
		perPage = 100
	}

	rooms, total, err := h.rooms.List(r.Context(), userID, page, perPage)
	if err != nil {
		h.Error(w, err)
		return
	}
	if rooms == nil {
		rooms = []models.RoomResponse{}
	}

	h.JSON(w, http.StatusOK, PaginatedResponse{
		Items:      rooms,
		Pagination: NewPagination(page, perPage, total),
	})
}

// CreateRoom handles POST /api/rooms. The caller becomes the owner.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}

	var in models.CreateRoomInput
	if derr := decode(r, &in); derr != nil {
		h.Error(w, derr)
		return
	}

	room, err := h.rooms.Create(r.Context(), &in, userID)
	if err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, room)
}

// GetRoom handles GET /api/rooms/{id}.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}

	id, aerr := roomID(r)
	if aerr != nil {
		h.Error(w, aerr)
		return
	}

	detail, err := h.rooms.Get(r.Context(), id, userID)
	if err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusOK, detail)
}

// UpdateRoom handles PUT /api/rooms/{id}. Admin or owner only.
func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}

	id, aerr := roomID(r)
	if aerr != nil {
		h.Error(w, aerr)
		return
	}

	var patch models.RoomPatch
	if derr := decode(r, &patch); derr != nil {
		h.Error(w, derr)
		return
	}

	room, err := h.rooms.Update(r.Context(), id, patch, userID)
	if err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusOK, room)
}

// DeleteRoom handles DELETE /api/rooms/{id}. Owner only.
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}

	id, aerr := roomID(r)
	if aerr != nil {
		h.Error(w, aerr)
		return
	}

	if err := h.rooms.Delete(r.Context(), id, userID); err != nil {
		h.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// JoinRoom handles POST /api/rooms/{id}/join.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}

	id, aerr := roomID(r)
	if aerr != nil {
		h.Error(w, aerr)
		return
	}

	member, err := h.rooms.Join(r.Context(), id, userID)
	if err != nil {
		h.Error(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, member)
}

// LeaveRoom handles POST /api/rooms/{id}/leave.
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}

	id, aerr := roomID(r)
	if aerr != nil {
		h.Error(w, aerr)
		return
	}

	if err := h.rooms.Leave(r.Context(), id, userID); err != nil {
		h.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RoomMembers handles GET /api/rooms/{id}/members.
func (h *Handler) RoomMembers(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}

	id, aerr := roomID(r)
	if aerr != nil {
		h.Error(w, aerr)
		return
	}

	members, err := h.rooms.Members(r.Context(), id, userID)
	if err != nil {
		h.Error(w, err)
		return
	}
	if members == nil {
		members = []models.RoomMemberInfo{}
	}

	h.JSON(w, http.StatusOK, members)
}
