package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/mw"
)

func init() { Register(registerOps) }

func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	guarded := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	guarded.Get("/readyz", handlers.Readyz(d))
	guarded.Get("/infra", handlers.Infra(d))
	guarded.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/reload", handlers.Reload(d))
}
