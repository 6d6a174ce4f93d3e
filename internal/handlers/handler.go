package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/inihikam/ngobrol/internal/apperr"
	"github.com/inihikam/ngobrol/internal/service"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	auth   *service.AuthService
	rooms  *service.RoomService
	logger zerolog.Logger

	// Health check probes, optional.
	pg    Pinger
	cache Pinger
}

// NewHandler creates a new Handler with the given services.
func NewHandler(auth *service.AuthService, rooms *service.RoomService, logger zerolog.Logger) *Handler {
	return &Handler{auth: auth, rooms: rooms, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes the canonical error envelope. Server-side failures are
// logged with their cause; the client only sees the generic category.
func (h *Handler) Error(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Wrap(apperr.KindInternal, err)
	}

	if appErr.IsServer() {
		h.logger.Error().Err(appErr.Unwrap()).Str("code", appErr.Code()).Msg("internal error")
	} else {
		h.logger.Warn().Str("code", appErr.Code()).Msg(appErr.Message())
	}

	apperr.WriteJSON(w, appErr)
}

// decode parses a JSON request body into dst.
func decode(r *http.Request, dst interface{}) *apperr.Error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation(map[string][]string{"body": {"Invalid JSON body"}})
	}
	return nil
}

// Pagination is the metadata attached to list responses.
type Pagination struct {
	Page       int64 `json:"page"`
	PerPage    int64 `json:"per_page"`
	TotalItems int64 `json:"total_items"`
	TotalPages int64 `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination computes the derived pagination fields.
func NewPagination(page, perPage, totalItems int64) Pagination {
	totalPages := (totalItems + perPage - 1) / perPage
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// PaginatedResponse wraps a list response with its pagination metadata.
type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}
