package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
)

type componentStatus struct {
	OK            bool   `json:"ok"`
	OpenOrderings *int   `json:"open_orderings,omitempty"`
	LastSync      string `json:"last_sync,omitempty"`
	Mode          string `json:"mode,omitempty"`
	Impact        string `json:"impact,omitempty"`
	Error         string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		open := d.Workspace.Count()
		components := map[string]componentStatus{
			"redis": checkRedis(r.Context(), d),
			"ordering": {
				OK:            true,
				OpenOrderings: &open,
			},
			"homepage_sync": homepageStatus(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func overallStatus(components map[string]componentStatus) string {
	if redis, ok := components["redis"]; ok && !redis.OK {
		return "critical"
	}
	if sync, ok := components["homepage_sync"]; ok && !sync.OK {
		return "degraded"
	}
	return "ok"
}

func homepageStatus(d deps.Deps) componentStatus {
	if d.SyncTrigger == nil || d.LastSync == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	last := d.LastSync()
	if last.IsZero() {
		return componentStatus{OK: false, Mode: "enabled", LastSync: "never", Impact: "homepage-bookmarks-missing"}
	}
	return componentStatus{OK: true, Mode: "enabled", LastSync: last.Format(time.RFC3339)}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Impact: "all-requests-failing",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Impact: "all-requests-failing",
			Error:  "timeout",
		}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}
