package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz is ready once the record store answers a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.RedisClient == nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Error: "redis client not initialized"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := d.RedisClient.Ping(ctx).Err(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Error: "redis unreachable"})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
