package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/service"
	"github.com/MrSnakeDoc/bookmarkhub/internal/validate"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	// Hint tells the client what to do next, "sign_in" on a 401.
	Hint string `json:"hint,omitempty"`
	// Set on a partly saved custom order.
	Committed *int                 `json:"committed,omitempty"`
	Total     *int                 `json:"total,omitempty"`
	Bookmarks *domain.Presentation `json:"bookmarks,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service and auth errors to a status code and a JSON body.
func writeError(w http.ResponseWriter, log logger.Logger, r *http.Request, err error) {
	var commitErr *service.CommitError
	switch {
	case errors.As(err, &commitErr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:     "custom order was only partly saved",
			Committed: &commitErr.Committed,
			Total:     &commitErr.Total,
			Bookmarks: &commitErr.Bookmarks,
		})
	case errors.Is(err, auth.ErrNoSession):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Hint: "sign_in"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, service.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeJSON reads a bounded JSON body into v and runs its validate tags.
// Failures come back wrapped in service.ErrInvalid.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", service.ErrInvalid)
		}
		return fmt.Errorf("%w: malformed body: %v", service.ErrInvalid, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalid, err)
	}
	return nil
}

// session returns the session RequireSession put on the request.
func session(r *http.Request) (auth.Session, error) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Session{}, auth.ErrNoSession
	}
	return sess, nil
}
