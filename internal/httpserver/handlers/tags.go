package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
)

type tagRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type tagSetRequest struct {
	Names []string `json:"names" validate:"max=500,dive,required,max=100"`
}

func ListTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		tags, err := d.Service.ListTags(r.Context(), sess)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(tags))
	}
}

func AddTag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		var req tagRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		tag, err := d.Service.AddTag(r.Context(), sess, req.Name)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, tag)
	}
}

func RenameTag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		var req tagRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		tag, err := d.Service.RenameTag(r.Context(), sess, chi.URLParam(r, "id"), req.Name)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tag)
	}
}

func DeleteTag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		if err := d.Service.DeleteTag(r.Context(), sess, chi.URLParam(r, "id")); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ReplaceTags makes the submitted names the user's whole tag set.
func ReplaceTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		var req tagSetRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		tags, err := d.Service.ReplaceTagSet(r.Context(), sess, req.Names)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(tags))
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
