package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
)

type settingsRequest struct {
	ViewMode    string `json:"viewMode" validate:"required,oneof=grid list"`
	ListColumns int    `json:"listColumns" validate:"min=1,max=4"`
	SortKey     string `json:"sortKey" validate:"required,oneof=accessCount title createdAt custom"`
	SortOrder   string `json:"sortOrder" validate:"required,oneof=asc desc"`
}

// GetSettings never fails: unreadable settings come back as the defaults.
func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d.Service.GetSettings(r.Context(), sess))
	}
}

func UpdateSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		var req settingsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		saved, err := d.Service.UpdateSettings(r.Context(), sess, domain.Settings{
			ViewMode:    domain.ViewMode(req.ViewMode),
			ListColumns: req.ListColumns,
			SortKey:     domain.SortKey(req.SortKey),
			SortOrder:   domain.SortOrder(req.SortOrder),
		})
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}
