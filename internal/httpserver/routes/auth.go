package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.SignInBurst,
		RefillPerMin: d.SignInRefillPerMin,
		TrustProxy:   d.TrustProxy,
		Now:          d.TimeNow,
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(limit).Post("/signup", handlers.SignUp(d))
		r.With(limit).Post("/signin", handlers.SignIn(d))

		r.Group(func(r chi.Router) {
			r.Use(requireSession(d))
			r.Post("/signout", handlers.SignOut(d))
			r.Get("/session", handlers.CurrentSession(d))
		})
	})
}
