package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/blog-api/errs"
	"github.com/rpupo63/blog-api/services"
)

const maxRequestBodyBytes = 1 << 20

type dashboardHandler struct {
	responder Responder
	logger    zerolog.Logger
	listing   *services.ListingService
	posts     *services.PostService
}

func newDashboardHandler(listing *services.ListingService, posts *services.PostService, verbose bool) dashboardHandler {
	logger := log.With().Str("handlerName", "dashboardHandler").Logger()

	return dashboardHandler{
		responder: NewResponder(logger, verbose),
		logger:    logger,
		listing:   listing,
		posts:     posts,
	}
}

// flexibleDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates
type flexibleDate struct {
	time.Time
}

func (d *flexibleDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.NewInvalidFieldError("date", "date must be a string")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t
			return nil
		}
	}
	return errs.NewInvalidFieldError("date", "date must be an ISO 8601 date")
}

func (d *flexibleDate) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// postRequest is the body of create and update requests
type postRequest struct {
	Title      string        `json:"title"`
	Body       string        `json:"body"`
	Category   string        `json:"category"`
	Date       *flexibleDate `json:"date"`
	GithubLink *string       `json:"githubLink"`
	Published  *bool         `json:"published"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var apiErr *errs.ApiErr
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return errs.BadRequest("Invalid JSON body")
	}
	return nil
}

// listBlogs lists posts of every status
// @Summary List blogs for the dashboard
// @Tags Dashboard
// @Produce json
// @Param category query string false "writings or projects; other values are ignored"
// @Param status query string false "published or draft; other values are ignored"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} PostListResponse
// @Failure 401 {object} ErrorResponse "Not authenticated"
// @Router /api/dashboard/blogs [get]
func (h dashboardHandler) listBlogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := listParamsFromRequest(r)
		params.Search = ""

		page, err := h.listing.ListDashboard(r.Context(), params)
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

// createBlog creates a post authored by the signed-in user
// @Summary Create blog
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param request body postRequest true "Blog"
// @Success 201 {object} PostResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Missing fields, invalid category or duplicate title"
// @Failure 401 {object} ErrorResponse "Not authenticated"
// @Router /api/dashboard/blogs [post]
func (h dashboardHandler) createBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		author, ok := principalFromCtx(r.Context())
		if !ok {
			h.responder.WriteError(w, errs.Unauthenticated())
			return
		}

		var req postRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		input := services.CreatePostInput{
			Title:     req.Title,
			Body:      req.Body,
			Category:  req.Category,
			Date:      req.Date.ptr(),
			Published: req.Published,
		}
		if req.GithubLink != nil {
			input.GithubLink = *req.GithubLink
		}

		post, err := h.posts.Create(r.Context(), author, input)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, PostResponse{
			Message: "Blog created successfully",
			Blog:    newPostView(post),
		})
	}
}

// updateBlog applies a partial update
// @Summary Update blog
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param id path string true "Blog ID" format(uuid)
// @Param request body postRequest true "Fields to change"
// @Success 200 {object} PostResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Duplicate title"
// @Failure 404 {object} ErrorResponse "Blog not found"
// @Router /api/dashboard/blogs/{id} [put]
func (h dashboardHandler) updateBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := services.ParsePostID(chi.URLParam(r, "id"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req postRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.posts.Update(r.Context(), id, services.UpdatePostInput{
			Title:      req.Title,
			Body:       req.Body,
			Category:   req.Category,
			Date:       req.Date.ptr(),
			GithubLink: req.GithubLink,
			Published:  req.Published,
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, PostResponse{
			Message: "Blog updated successfully",
			Blog:    newPostView(post),
		})
	}
}

// deleteBlog removes a post
// @Summary Delete blog
// @Tags Dashboard
// @Produce json
// @Param id path string true "Blog ID" format(uuid)
// @Success 200 {object} DeleteResponse
// @Failure 404 {object} ErrorResponse "Blog not found"
// @Router /api/dashboard/blogs/{id} [delete]
func (h dashboardHandler) deleteBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := services.ParsePostID(chi.URLParam(r, "id"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.posts.Delete(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, DeleteResponse{
			Message:     "Blog deleted successfully",
			DeletedBlog: DeletedPost{ID: post.ID, Title: post.Title},
		})
	}
}

// publishBlog sets the published flag
// @Summary Publish or unpublish blog
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param id path string true "Blog ID" format(uuid)
// @Param request body object true "{\"published\": true}"
// @Success 200 {object} PostResponse
// @Failure 400 {object} ErrorResponse "Published field must be a boolean"
// @Failure 404 {object} ErrorResponse "Blog not found"
// @Router /api/dashboard/blogs/{id}/publish [patch]
func (h dashboardHandler) publishBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		published, err := decodePublished(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		id, err := services.ParsePostID(chi.URLParam(r, "id"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.posts.SetPublished(r.Context(), id, published)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message := "Blog unpublished successfully"
		if published {
			message = "Blog published successfully"
		}
		h.responder.WriteJSON(w, PostResponse{Message: message, Blog: newPostView(post)})
	}
}

// decodePublished reads {"published": <bool>}. Strings, numbers and null are rejected.
func decodePublished(w http.ResponseWriter, r *http.Request) (bool, error) {
	invalid := errs.NewInvalidFieldError("published", "Published field must be a boolean")

	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		return false, invalid
	}
	switch string(bytes.TrimSpace(body["published"])) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, invalid
	}
}
