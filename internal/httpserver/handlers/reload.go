package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
)

// Reload triggers a manual homepage bookmark sync.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.SyncTrigger == nil {
			w.WriteHeader(http.StatusNotFound)
			if _, err := w.Write([]byte("homepage sync is not configured\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		select {
		case d.SyncTrigger <- struct{}{}:
			d.Logger.Info("manual homepage sync triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("sync triggered\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		default:
			d.Logger.Warn("homepage sync already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("sync already in progress, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		}
	}
}
