package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/index"
	"github.com/MrSnakeDoc/bookmarkhub/internal/service"
)

type moveRequest struct {
	OldIndex int  `json:"oldIndex" validate:"min=0"`
	NewIndex int  `json:"newIndex" validate:"min=0"`
	Pinned   bool `json:"pinned"`
}

// BeginOrdering enters manual ordering mode. The list is shown by custom
// rank, filtered by the q and tags parameters.
func BeginOrdering(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		qs := r.URL.Query()
		q, err := d.Service.ResolveQuery(r.Context(), sess,
			strings.TrimSpace(qs.Get("q")), tagsParam(qs["tags"]), string(domain.SortCustom), "")
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		l, err := d.Service.BeginOrdering(r.Context(), sess, q)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newListResponse(l.Presentation, l.Query, true))
	}
}

// MoveOrdering moves one item within the pinned or unpinned section.
func MoveOrdering(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		var req moveRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		l, err := d.Service.MoveOrdering(sess, req.OldIndex, req.NewIndex, req.Pinned)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newListResponse(l.Presentation, l.Query, true))
	}
}

// EndOrdering leaves ordering mode and saves the new ranks.
func EndOrdering(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		l, err := d.Service.EndOrdering(r.Context(), sess)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newListResponse(l.Presentation, l.Query, false))
	}
}

// DiscardOrdering leaves ordering mode without saving.
func DiscardOrdering(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		if !d.Service.DiscardOrdering(sess) {
			writeError(w, d.Logger, r, fmt.Errorf("%w: %w", service.ErrInvalid, index.ErrNoOrdering))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
