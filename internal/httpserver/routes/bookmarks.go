package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.With(requireSession(d)).Route("/api/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.ListBookmarks(d))
		r.Post("/", handlers.SaveBookmark(d))
		r.Delete("/", handlers.DeleteAllBookmarks(d))

		r.Post("/import", handlers.ImportBookmarks(d))
		r.Get("/export", handlers.ExportBookmarks(d))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.GetBookmark(d))
			r.Put("/", handlers.SaveBookmark(d))
			r.Delete("/", handlers.DeleteBookmark(d))
			r.Post("/pin", handlers.TogglePin(d))
			r.Post("/access", handlers.RecordAccess(d))
		})
	})
}
