package services

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/rpupo63/blog-api/errs"
	"github.com/rpupo63/blog-api/models"
)

const (
	DefaultPublicLimit    = 10
	DefaultDashboardLimit = 20
)

// PostReader is the read side of the post repository
type PostReader interface {
	List(ctx context.Context, opts models.PostListOptions) ([]*models.Post, int64, error)
	FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Post, error)
}

// ListParams are listing query parameters exactly as received
type ListParams struct {
	Category string
	Status   string
	Search   string
	Page     string
	Limit    string
}

type PostPage struct {
	Posts      []*models.Post
	Pagination models.Pagination
}

type ListingService struct {
	posts PostReader
}

func NewListingService(posts PostReader) *ListingService {
	return &ListingService{posts: posts}
}

// ListPublished lists published posts. An unknown category is ignored.
func (s *ListingService) ListPublished(ctx context.Context, params ListParams) (*PostPage, error) {
	published := true
	filter := models.PostFilter{
		Published: &published,
		Search:    params.Search,
	}
	if category, ok := models.ParseCategory(params.Category); ok {
		filter.Category = &category
	}
	return s.list(ctx, params, DefaultPublicLimit, filter, models.SortByDateDesc, true)
}

// ListByCategory lists published posts of one category. Unlike ListPublished,
// an unknown category is an error here.
func (s *ListingService) ListByCategory(ctx context.Context, rawCategory string, params ListParams) (*PostPage, error) {
	category, ok := models.ParseCategory(rawCategory)
	if !ok {
		return nil, errs.BadRequest("Invalid category")
	}

	published := true
	filter := models.PostFilter{
		Category:  &category,
		Published: &published,
	}
	return s.list(ctx, params, DefaultPublicLimit, filter, models.SortByDateDesc, true)
}

// ListDashboard lists posts of every status, newest first.
// Status "published" or "draft" narrows the result; any other value does not.
func (s *ListingService) ListDashboard(ctx context.Context, params ListParams) (*PostPage, error) {
	var filter models.PostFilter
	if category, ok := models.ParseCategory(params.Category); ok {
		filter.Category = &category
	}
	switch params.Status {
	case "published":
		published := true
		filter.Published = &published
	case "draft":
		published := false
		filter.Published = &published
	}
	return s.list(ctx, params, DefaultDashboardLimit, filter, models.SortByCreatedDesc, false)
}

// GetPublished returns the published post with slug
func (s *ListingService) GetPublished(ctx context.Context, slug string) (*models.Post, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, errs.NewNotFound("Blog")
	}
	return s.posts.FindBySlug(ctx, slug, true)
}

func (s *ListingService) list(ctx context.Context, params ListParams, defaultLimit int, filter models.PostFilter, sort models.PostSort, withAuthor bool) (*PostPage, error) {
	page, err := parsePositive("page", params.Page, 1)
	if err != nil {
		return nil, err
	}
	limit, err := parsePositive("limit", params.Limit, defaultLimit)
	if err != nil {
		return nil, err
	}
	if page-1 > math.MaxInt32/limit {
		return nil, errs.NewInvalidFieldError("page", "page is out of range")
	}

	posts, total, err := s.posts.List(ctx, models.PostListOptions{
		Filter:     filter,
		Sort:       sort,
		Offset:     (page - 1) * limit,
		Limit:      limit,
		WithAuthor: withAuthor,
	})
	if err != nil {
		return nil, err
	}

	return &PostPage{
		Posts:      posts,
		Pagination: models.NewPagination(total, page, limit),
	}, nil
}

// parsePositive reads a positive integer parameter; empty means def
func parsePositive(name, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errs.NewInvalidFieldError(name, name+" must be a positive integer")
	}
	return n, nil
}
