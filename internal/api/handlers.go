package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"gwi.com/diary-notes/internal/auth"
	"gwi.com/diary-notes/internal/core"
	"gwi.com/diary-notes/internal/store"
)

// NotesService is the part of core.NotesService the HTTP layer drives.
type NotesService interface {
	Publish(ctx context.Context, in core.PublishInput) (string, error)
	DeleteNote(ctx context.Context, userID int64, noteID string) error
	Like(ctx context.Context, userID int64, noteID string) error
	List(ctx context.Context, userID int64) (*core.Listing, error)
	ListSince(ctx context.Context, userID int64, from time.Time) ([]store.Note, error)
	Update(ctx context.Context, in core.UpdateInput) error
}

var _ NotesService = (*core.NotesService)(nil)

type contextKey string

const userIDKey contextKey = "userID"

func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

type APIHandler struct {
	notes     NotesService
	jwtSecret string
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewAPIHandler(notes NotesService, jwtSecret string, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		notes:     notes,
		jwtSecret: jwtSecret,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := auth.ValidateJWT(h.jwtSecret, tokenString)
		if err != nil {
			h.logger.Debug("rejected token", zap.Error(err), zap.String("path", r.URL.Path))
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type PublishRequest struct {
	Title     string   `json:"title" validate:"max=200"`
	Content   string   `json:"content" validate:"required"`
	Location  string   `json:"location"`
	Longitude float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Latitude  float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Images    []string `json:"images" validate:"dive,required"`
}

type PublishResponse struct {
	ID string `json:"id"`
}

func (h *APIHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req PublishRequest
	if !h.decode(w, r, &req) {
		return
	}

	noteID, err := h.notes.Publish(r.Context(), core.PublishInput{
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		Location:  req.Location,
		Longitude: req.Longitude,
		Latitude:  req.Latitude,
		Images:    req.Images,
	})
	if err != nil {
		h.writeServiceError(w, err, "Failed to publish note")
		return
	}
	writeJSON(w, http.StatusCreated, PublishResponse{ID: noteID})
}

func (h *APIHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	listing, err := h.notes.List(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list notes")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

type ListSinceResponse struct {
	Notes []store.Note `json:"notes"`
}

func (h *APIHandler) ListSinceHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	ms, err := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Query parameter 'from' must be a unix timestamp in milliseconds")
		return
	}

	notes, err := h.notes.ListSince(r.Context(), userID, time.UnixMilli(ms))
	if err != nil {
		h.writeServiceError(w, err, "Failed to list notes")
		return
	}
	if notes == nil {
		notes = []store.Note{}
	}
	writeJSON(w, http.StatusOK, ListSinceResponse{Notes: notes})
}

type UpdateRequest struct {
	Title   string   `json:"title" validate:"max=200"`
	Content string   `json:"content" validate:"required"`
	Images  []string `json:"images" validate:"dive,required"`
	Mood    *float64 `json:"mood" validate:"required,gte=0,lte=100"`
}

func (h *APIHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	noteID := chi.URLParam(r, "noteID")

	var req UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.notes.Update(r.Context(), core.UpdateInput{
		UserID:  userID,
		NoteID:  noteID,
		Title:   req.Title,
		Content: req.Content,
		Images:  req.Images,
		Mood:    *req.Mood,
	})
	if err != nil {
		h.writeServiceError(w, err, "Failed to update note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	noteID := chi.URLParam(r, "noteID")

	if err := h.notes.DeleteNote(r.Context(), userID, noteID); err != nil {
		h.writeServiceError(w, err, "Failed to delete note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) LikeHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	noteID := chi.URLParam(r, "noteID")

	if err := h.notes.Like(r.Context(), userID, noteID); err != nil {
		h.writeServiceError(w, err, "Failed to like note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return false
	}
	return true
}

// statusFor maps core error kinds to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, core.ErrServiceError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	switch status {
	case http.StatusNotFound, http.StatusConflict:
		writeError(w, status, err.Error())
	default:
		h.logger.Error(fallback, zap.Error(err))
		writeError(w, status, fallback)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
