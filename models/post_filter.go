package models

import "math"

type PostSort int

const (
	// SortByDateDesc orders by publication date, newest first.
	SortByDateDesc PostSort = iota
	// SortByCreatedDesc orders by creation time, newest first.
	SortByCreatedDesc
)

// PostFilter is the persistence-agnostic description of a listing filter.
type PostFilter struct {
	Category  *Category
	Published *bool
	// Search matches title or body, case-insensitive substring.
	Search string
}

type PostListOptions struct {
	Filter     PostFilter
	Sort       PostSort
	Offset     int
	Limit      int
	WithAuthor bool
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
}

// NewPagination expects limit > 0.
func NewPagination(total int64, page, limit int) Pagination {
	return Pagination{
		Total: total,
		Page:  page,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
		Limit: limit,
	}
}
