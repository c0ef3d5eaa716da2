package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/rpupo63/blog-api/models"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	authHandler      authHandler
	blogHandler      blogHandler
	dashboardHandler dashboardHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string `json:"error" example:"Blog not found"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Failed to find Blog"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
	Stack   string `json:"stack,omitempty"`
}

type authorView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PostView is the JSON shape of a post
type PostView struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Slug       string          `json:"slug"`
	Body       string          `json:"body"`
	Category   models.Category `json:"category"`
	Date       time.Time       `json:"date"`
	ReadTime   string          `json:"readTime"`
	GithubLink *string         `json:"githubLink,omitempty"`
	Published  bool            `json:"published"`
	AuthorID   uuid.UUID       `json:"authorId"`
	Author     *authorView     `json:"author,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func newPostView(p *models.Post) PostView {
	view := PostView{
		ID:         p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		Body:       p.Body,
		Category:   p.Category,
		Date:       p.Date,
		ReadTime:   p.ReadTime,
		GithubLink: p.GithubLink,
		Published:  p.Published,
		AuthorID:   p.AuthorID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.Author != nil {
		view.Author = &authorView{Name: p.Author.Name, Email: p.Author.Email}
	}
	return view
}

func newPostViews(posts []*models.Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, newPostView(p))
	}
	return views
}

type PostListResponse struct {
	Blogs      []PostView        `json:"blogs"`
	Pagination models.Pagination `json:"pagination"`
}

type CategoryListResponse struct {
	Category   string            `json:"category"`
	Blogs      []PostView        `json:"blogs"`
	Pagination models.Pagination `json:"pagination"`
}

type PostResponse struct {
	Message string   `json:"message"`
	Blog    PostView `json:"blog"`
}

type DeletedPost struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type DeleteResponse struct {
	Message     string      `json:"message"`
	DeletedBlog DeletedPost `json:"deletedBlog"`
}

type UserView struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Avatar *string   `json:"avatar"`
}

type UserResponse struct {
	User UserView `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}
