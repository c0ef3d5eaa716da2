package database

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/rpupo63/blog-api/errs"
	"github.com/rpupo63/blog-api/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes term match literally inside a LIKE pattern
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// applyPostFilter translates a PostFilter into WHERE clauses.
// Every listing goes through here so count and page always agree.
func applyPostFilter(tx *gorm.DB, filter models.PostFilter) *gorm.DB {
	if filter.Category != nil {
		tx = tx.Where("category = ?", string(*filter.Category))
	}
	if filter.Published != nil {
		tx = tx.Where("published = ?", *filter.Published)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		tx = tx.Where(`search_text LIKE ? ESCAPE '\'`, pattern)
	}
	return tx
}

func postOrder(sort models.PostSort) string {
	switch sort {
	case models.SortByCreatedDesc:
		return "created_at DESC, id DESC"
	default:
		return "date DESC, created_at DESC, id DESC"
	}
}

// List returns one page of posts matching opts together with the total match count
func (r *PostRepo) List(ctx context.Context, opts models.PostListOptions) ([]*models.Post, int64, error) {
	var (
		posts []*models.Post
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return applyPostFilter(r.db.WithContext(gctx).Model(&models.Post{}), opts.Filter).
			Count(&total).Error
	})
	g.Go(func() error {
		tx := applyPostFilter(r.db.WithContext(gctx).Model(&models.Post{}), opts.Filter)
		if opts.WithAuthor {
			tx = withAuthor(tx)
		}
		return tx.Order(postOrder(opts.Sort)).Offset(opts.Offset).Limit(opts.Limit).Find(&posts).Error
	})
	if err := g.Wait(); err != nil {
		return nil, 0, errs.NewDatabaseError("list", postEntity, err)
	}

	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, total, nil
}
