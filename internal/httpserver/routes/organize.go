package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/handlers"
)

func init() { Register(registerOrganize) }

// registerOrganize mounts tags, tag rules, display settings and ordering.
func registerOrganize(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(requireSession(d))

		r.Route("/api/tags", func(r chi.Router) {
			r.Get("/", handlers.ListTags(d))
			r.Post("/", handlers.AddTag(d))
			r.Put("/", handlers.ReplaceTags(d))
			r.Patch("/{id}", handlers.RenameTag(d))
			r.Delete("/{id}", handlers.DeleteTag(d))
		})

		r.Route("/api/rules", func(r chi.Router) {
			r.Get("/", handlers.ListRules(d))
			r.Post("/", handlers.CreateRule(d))
			r.Delete("/{id}", handlers.DeleteRule(d))
		})

		r.Get("/api/settings", handlers.GetSettings(d))
		r.Put("/api/settings", handlers.UpdateSettings(d))

		r.Route("/api/ordering", func(r chi.Router) {
			r.Post("/", handlers.BeginOrdering(d))
			r.Post("/move", handlers.MoveOrdering(d))
			r.Post("/end", handlers.EndOrdering(d))
			r.Delete("/", handlers.DiscardOrdering(d))
		})
	})
}
