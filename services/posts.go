package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/blog-api/errs"
	"github.com/rpupo63/blog-api/models"
)

// PostWriter is the write side of the post repository
type PostWriter interface {
	Add(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, id uuid.UUID, patch models.PostPatch) (*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Post, error)
}

type CreatePostInput struct {
	Title      string
	Body       string
	Category   string
	Date       *time.Time
	GithubLink string
	Published  *bool
}

// UpdatePostInput carries a partial update. Empty Title, Body and Category
// leave the stored values alone; nil pointers mean "not supplied".
type UpdatePostInput struct {
	Title      string
	Body       string
	Category   string
	Date       *time.Time
	GithubLink *string
	Published  *bool
}

type PostService struct {
	posts  PostWriter
	logger zerolog.Logger
	now    func() time.Time
}

func NewPostService(posts PostWriter) *PostService {
	return &PostService{
		posts:  posts,
		logger: log.With().Str("service", "posts").Logger(),
		now:    time.Now,
	}
}

// ParsePostID parses a post id path parameter. A malformed id cannot match
// any post, so it is reported as not found.
func ParsePostID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewNotFound("Blog")
	}
	return id, nil
}

// Create stores a new post authored by author
func (s *PostService) Create(ctx context.Context, author *models.User, in CreatePostInput) (*models.Post, error) {
	if author == nil {
		return nil, errs.Unauthenticated()
	}
	if in.Title == "" || in.Body == "" || in.Category == "" {
		return nil, errs.BadRequest("Title, body, and category are required")
	}
	category, ok := models.ParseCategory(in.Category)
	if !ok {
		return nil, errs.NewInvalidFieldError("category", `Category must be either "writings" or "projects"`)
	}

	post := &models.Post{
		Title:    in.Title,
		Body:     in.Body,
		Category: category,
		Date:     s.now(),
		AuthorID: author.ID,
	}
	if in.Date != nil && !in.Date.IsZero() {
		post.Date = *in.Date
	}
	if in.GithubLink != "" {
		link := in.GithubLink
		post.GithubLink = &link
	}
	if in.Published != nil {
		post.Published = *in.Published
	}

	if err := s.posts.Add(ctx, post); err != nil {
		return nil, err
	}
	post.Author = author

	s.logger.Info().Str("postId", post.ID.String()).Str("slug", post.Slug).Msg("post created")
	return post, nil
}

// Update applies in to the post. An unknown category is ignored rather than rejected.
func (s *PostService) Update(ctx context.Context, id uuid.UUID, in UpdatePostInput) (*models.Post, error) {
	var patch models.PostPatch
	if in.Title != "" {
		patch.Title = &in.Title
	}
	if in.Body != "" {
		patch.Body = &in.Body
	}
	if category, ok := models.ParseCategory(in.Category); ok {
		patch.Category = &category
	}
	if in.Date != nil && !in.Date.IsZero() {
		patch.Date = in.Date
	}
	patch.GithubLink = in.GithubLink
	patch.Published = in.Published

	post, err := s.posts.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("postId", post.ID.String()).Msg("post updated")
	return post, nil
}

// SetPublished sets the published flag. Setting the current value again is not an error.
func (s *PostService) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Post, error) {
	post, err := s.posts.Update(ctx, id, models.PostPatch{Published: &published})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("postId", post.ID.String()).Bool("published", published).Msg("post publish state set")
	return post, nil
}

// Delete removes the post and returns what was removed
func (s *PostService) Delete(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.posts.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("postId", post.ID.String()).Msg("post deleted")
	return post, nil
}
