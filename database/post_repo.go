package database

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/blog-api/errs"
	"github.com/rpupo63/blog-api/models"
)

const postEntity = "Blog"

type PostRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) *PostRepo {
	return &PostRepo{db}
}

// withAuthor joins the author, exposing only name and email
func withAuthor(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Author", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "email")
	})
}

// FindByID returns a blog post by its ID together with its author
func (r *PostRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := withAuthor(r.db.WithContext(ctx)).First(&post, "id = ?", id).Error
	if err != nil {
		return nil, errs.NewDatabaseError("find", postEntity, err)
	}
	return &post, nil
}

// FindBySlug looks a post up by its slug. The slug is case-normalized first.
func (r *PostRepo) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Post, error) {
	tx := withAuthor(r.db.WithContext(ctx)).Where("slug = ?", strings.ToLower(strings.TrimSpace(slug)))
	if publishedOnly {
		tx = tx.Where("published = ?", true)
	}

	var post models.Post
	if err := tx.First(&post).Error; err != nil {
		return nil, errs.NewDatabaseError("find", postEntity, err)
	}
	return &post, nil
}

// Add derives slug and reading time, then inserts the post
func (r *PostRepo) Add(ctx context.Context, post *models.Post) error {
	if err := deriveSlug(post); err != nil {
		return err
	}
	post.ReadTime = models.EstimateReadTime(post.Body)
	refreshSearchText(post)

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	if post.Date.IsZero() {
		post.Date = time.Now()
	}

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
	if errs.IsDuplicateKey(err) {
		return errs.NewDuplicateTitle(err)
	}
	if err != nil {
		return errs.NewDatabaseError("create", postEntity, err)
	}
	return nil
}

// Update applies the supplied fields of patch to the post and returns the stored result
func (r *PostRepo) Update(ctx context.Context, id uuid.UUID, patch models.PostPatch) (*models.Post, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, "id = ?", id).Error; err != nil {
			return err
		}
		if err := applyPatch(&post, patch); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&post).Error
	})
	if errs.IsDuplicateKey(err) {
		return nil, errs.NewDuplicateTitle(err)
	}
	if err != nil {
		return nil, errs.NewDatabaseError("update", postEntity, err)
	}

	return r.FindByID(ctx, id)
}

// Delete removes a blog post by id and returns what was removed
func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Post{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, errs.NewDatabaseError("delete", postEntity, err)
	}
	return &post, nil
}

// Count returns the number of stored posts
func (r *PostRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error
	return count, err
}

func applyPatch(post *models.Post, patch models.PostPatch) error {
	if patch.Title != nil {
		post.Title = *patch.Title
		if err := deriveSlug(post); err != nil {
			return err
		}
	}
	if patch.Body != nil {
		post.Body = *patch.Body
		post.ReadTime = models.EstimateReadTime(post.Body)
	}
	if patch.Category != nil {
		post.Category = *patch.Category
	}
	if patch.Date != nil {
		post.Date = *patch.Date
	}
	if patch.GithubLink != nil {
		if *patch.GithubLink == "" {
			post.GithubLink = nil
		} else {
			link := *patch.GithubLink
			post.GithubLink = &link
		}
	}
	if patch.Published != nil {
		post.Published = *patch.Published
	}
	refreshSearchText(post)
	return nil
}

// refreshSearchText folds case in Go so search behaves the same on every dialect.
// SQLite's LOWER only folds ASCII.
func refreshSearchText(post *models.Post) {
	post.SearchText = strings.ToLower(post.Title) + "\n" + strings.ToLower(post.Body)
}

func deriveSlug(post *models.Post) error {
	post.Slug = models.Slugify(post.Title)
	if post.Slug == "" {
		return errs.NewInvalidFieldError("title", "Title must contain at least one letter or number")
	}
	return nil
}
