package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/service"
)

type ruleRequest struct {
	TargetField string `json:"targetField" validate:"required,oneof=title url"`
	MatchType   string `json:"matchType" validate:"required,oneof=starts_with contains ends_with"`
	Pattern     string `json:"pattern" validate:"required,max=500"`
	TagID       string `json:"tagId" validate:"required"`
}

type ruleResponse struct {
	Rule    domain.TagRule `json:"rule"`
	Matched int            `json:"matched"`
}

func ListRules(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		rules, err := d.Service.ListRules(r.Context(), sess)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(rules))
	}
}

// CreateRule stores the rule and tags every bookmark it already matches.
func CreateRule(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		var req ruleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		rule, matched, err := d.Service.CreateRule(r.Context(), sess, domain.TagRule{
			TargetField: domain.TargetField(req.TargetField),
			MatchType:   domain.MatchType(req.MatchType),
			Pattern:     req.Pattern,
			TagID:       req.TagID,
		})
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, ruleResponse{Rule: rule, Matched: matched})
	}
}

// DeleteRule removes a rule; ?remove_tags=true also untags what it matches.
func DeleteRule(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		removeTags := false
		if v := r.URL.Query().Get("remove_tags"); v != "" {
			removeTags, err = strconv.ParseBool(v)
			if err != nil {
				writeError(w, d.Logger, r, invalidParam("remove_tags", v))
				return
			}
		}
		if err := d.Service.DeleteRule(r.Context(), sess, chi.URLParam(r, "id"), removeTags); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func invalidParam(name, value string) error {
	return fmt.Errorf("%w: invalid value %q for %s", service.ErrInvalid, value, name)
}
