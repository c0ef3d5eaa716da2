package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rpupo63/blog-api/errs"
)

// setupRoutes sets up the public, auth and dashboard routes
func setupRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google", handlers.authHandler.login())
		r.Get("/google/callback", handlers.authHandler.callback())
		r.Get("/logout", handlers.authHandler.logout())
		r.Get("/user", handlers.authHandler.currentUser())
	})

	r.Route("/api/blogs", func(r chi.Router) {
		r.Get("/", handlers.blogHandler.listBlogs())
		r.Get("/category/{category}", handlers.blogHandler.listByCategory())
		r.Get("/{slug}", handlers.blogHandler.getBlog())
	})

	// Authenticated routes
	r.Route("/api/dashboard", func(r chi.Router) {
		r.Use(auth.requireAuth)

		r.Get("/blogs", handlers.dashboardHandler.listBlogs())
		r.Post("/blogs", handlers.dashboardHandler.createBlog())
		r.Put("/blogs/{id}", handlers.dashboardHandler.updateBlog())
		r.Delete("/blogs/{id}", handlers.dashboardHandler.deleteBlog())
		r.Patch("/blogs/{id}/publish", handlers.dashboardHandler.publishBlog())
	})
}

func notFound(responder Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder.WriteError(w, errs.NewRouteNotFound())
	}
}
