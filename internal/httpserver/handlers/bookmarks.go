package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/service"
)

type listResponse struct {
	domain.Presentation
	SortKey   domain.SortKey   `json:"sortKey"`
	SortOrder domain.SortOrder `json:"sortOrder"`
	Ordering  bool             `json:"ordering"`
	Total     int              `json:"total"`
}

type bookmarkRequest struct {
	Title   string   `json:"title" validate:"required,max=500"`
	URL     string   `json:"url" validate:"required,url,max=2048"`
	Tags    []string `json:"tags" validate:"omitempty,max=50,dive,required,max=100"`
	Favicon string   `json:"favicon,omitempty" validate:"omitempty,url"`
	Pinned  bool     `json:"isPinned"`
}

// ListBookmarks returns the presented list for the query string
// (q, tags, sort, order). Missing sort fields use the stored settings.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		qs := r.URL.Query()
		q, err := d.Service.ResolveQuery(r.Context(), sess,
			strings.TrimSpace(qs.Get("q")), tagsParam(qs["tags"]), qs.Get("sort"), qs.Get("order"))
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		p, err := d.Service.Present(r.Context(), sess, q)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newListResponse(p, q, d.Workspace.Active(sess.UserID)))
	}
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		b, err := d.Service.GetBookmark(r.Context(), sess, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// SaveBookmark handles both create (POST) and edit (PUT /{id}).
func SaveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		var req bookmarkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		id := chi.URLParam(r, "id")
		b, err := d.Service.SaveBookmark(r.Context(), sess, service.BookmarkInput{
			ID:      id,
			Title:   req.Title,
			URL:     req.URL,
			Tags:    req.Tags,
			Favicon: req.Favicon,
			Pinned:  req.Pinned,
		})
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		status := http.StatusOK
		if id == "" {
			status = http.StatusCreated
		}
		writeJSON(w, status, b)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		if err := d.Service.DeleteBookmark(r.Context(), sess, chi.URLParam(r, "id")); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func TogglePin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		b, err := d.Service.TogglePin(r.Context(), sess, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// RecordAccess is called when the user opens a bookmark.
func RecordAccess(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		b, err := d.Service.RecordAccess(r.Context(), sess, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

type deleteAllResponse struct {
	Deleted int `json:"deleted"`
}

func DeleteAllBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		n, err := d.Service.DeleteAll(r.Context(), sess)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteAllResponse{Deleted: n})
	}
}

func newListResponse(p domain.Presentation, q domain.Query, ordering bool) listResponse {
	if p.Pinned == nil {
		p.Pinned = []domain.Bookmark{}
	}
	if p.Unpinned == nil {
		p.Unpinned = []domain.Bookmark{}
	}
	return listResponse{
		Presentation: p,
		SortKey:      q.SortKey,
		SortOrder:    q.SortOrder,
		Ordering:     ordering,
		Total:        p.Len(),
	}
}

// tagsParam accepts both ?tags=a&tags=b and ?tags=a,b.
func tagsParam(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
