package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/blog-api/services"
)

type blogHandler struct {
	responder Responder
	logger    zerolog.Logger
	listing   *services.ListingService
}

func newBlogHandler(listing *services.ListingService, verbose bool) blogHandler {
	logger := log.With().Str("handlerName", "blogHandler").Logger()

	return blogHandler{
		responder: NewResponder(logger, verbose),
		logger:    logger,
		listing:   listing,
	}
}

func listParamsFromRequest(r *http.Request) services.ListParams {
	q := r.URL.Query()
	return services.ListParams{
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Search:   q.Get("search"),
		Page:     q.Get("page"),
		Limit:    q.Get("limit"),
	}
}

// listBlogs lists published posts
// @Summary List published blogs
// @Tags Blogs
// @Produce json
// @Param category query string false "writings or projects; other values are ignored"
// @Param search query string false "Case-insensitive match on title or body"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} PostListResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid page or limit"
// @Router /api/blogs [get]
func (h blogHandler) listBlogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.listing.ListPublished(r.Context(), listParamsFromRequest(r))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, PostListResponse{
			Blogs:      newPostViews(page.Posts),
			Pagination: page.Pagination,
		})
	}
}

// getBlog returns one published post
// @Summary Get a published blog by slug
// @Tags Blogs
// @Produce json
// @Param slug path string true "Blog slug"
// @Success 200 {object} PostView
// @Failure 404 {object} ErrorResponse "Blog not found"
// @Router /api/blogs/{slug} [get]
func (h blogHandler) getBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := h.listing.GetPublished(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, newPostView(post))
	}
}

// listByCategory lists published posts of one category
// @Summary List published blogs in a category
// @Tags Blogs
// @Produce json
// @Param category path string true "writings or projects"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} CategoryListResponse
// @Failure 400 {object} ErrorResponse "Invalid category"
// @Router /api/blogs/category/{category} [get]
func (h blogHandler) listByCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")

		page, err := h.listing.ListByCategory(r.Context(), category, listParamsFromRequest(r))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, CategoryListResponse{
			Category:   category,
			Blogs:      newPostViews(page.Posts),
			Pagination: page.Pagination,
		})
	}
}
