package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/utils"
)

// AllowOnlyCIDRS guards the ops endpoints. An empty list lets everyone
// through; a list made only of malformed entries lets nobody through.
// trustProxy should be true behind a trusted reverse proxy or tunnel.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m, rejected := utils.ParseAllowList(allowed)
	for _, entry := range rejected {
		log.Warn("AllowOnlyCIDRS: ignoring malformed entry", logger.String("entry", entry))
	}
	if m.Empty() && len(rejected) == 0 {
		log.Debug("AllowOnlyCIDRS: empty matcher, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Contains(ip) {
				log.Warn("ops endpoint refused",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
