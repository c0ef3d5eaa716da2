package models

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryWritings Category = "writings"
	CategoryProjects Category = "projects"
)

// ParseCategory accepts only the exact enum values.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryWritings, CategoryProjects:
		return c, true
	}
	return "", false
}

// Post is a blog entry. Slug and ReadTime are derived and only written by the repository.
type Post struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title      string    `json:"title" db:"title" gorm:"type:text;not null"`
	Slug       string    `json:"slug" db:"slug" gorm:"type:text;not null;uniqueIndex"`
	Body       string    `json:"body" db:"body" gorm:"type:text;not null"`
	Category   Category  `json:"category" db:"category" gorm:"type:text;not null;index"`
	Date       time.Time `json:"date" db:"date" gorm:"not null;index:idx_blog_posts_date,sort:desc"`
	ReadTime   string    `json:"readTime" db:"read_time" gorm:"type:text;not null"`
	GithubLink *string   `json:"githubLink,omitempty" db:"github_link" gorm:"type:text"`
	Published  bool      `json:"published" db:"published" gorm:"not null;index"`
	AuthorID   uuid.UUID `json:"authorId" db:"author_id" gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at" gorm:"index"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
	// SearchText is the case-folded title and body that search matches against
	SearchText string    `json:"-" db:"search_text" gorm:"type:text;not null;default:''"`

	Author *User `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (Post) TableName() string {
	return "blog_posts"
}

// PostPatch holds the fields of a partial update. A nil field is left untouched.
type PostPatch struct {
	Title      *string
	Body       *string
	Category   *Category
	Date       *time.Time
	GithubLink *string
	Published  *bool
}
