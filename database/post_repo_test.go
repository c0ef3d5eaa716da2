package database

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/blog-api/config"
	"github.com/rpupo63/blog-api/errs"
	"github.com/rpupo63/blog-api/models"
)

func newTestDatabase(t *testing.T) Database {
	t.Helper()

	db, err := Connect(config.Settings{
		Mode:        config.ModeProduction,
		DBType:      "sqlite",
		DatabaseURL: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(db)
}

func seedAuthor(t *testing.T, d Database) *models.User {
	t.Helper()
	user := &models.User{
		GoogleID: "google-" + uuid.NewString(),
		Email:    "owner@example.com",
		Name:     "Owner",
	}
	require.NoError(t, d.UserRepo().Add(context.Background(), user))
	return user
}

func newPost(author *models.User, title string, category models.Category, published bool, date time.Time) *models.Post {
	return &models.Post{
		Title:     title,
		Body:      "some words about " + title,
		Category:  category,
		Date:      date,
		Published: published,
		AuthorID:  author.ID,
	}
}

func TestPostRepo_AddDerivesFields(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()
	author := seedAuthor(t, d)

	post := &models.Post{
		Title:    "Hello World",
		Body:     strings.Repeat("word ", 201),
		Category: models.CategoryWritings,
		AuthorID: author.ID,
	}
	require.NoError(t, d.PostRepo().Add(ctx, post))

	assert.NotEqual(t, uuid.Nil, post.ID)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, "2 min read", post.ReadTime)
	assert.False(t, post.Date.IsZero())
	assert.False(t, post.Published)

	stored, err := d.PostRepo().FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", stored.Slug)
	require.NotNil(t, stored.Author)
	assert.Equal(t, "Owner", stored.Author.Name)
	assert.Equal(t, "owner@example.com", stored.Author.Email)
}

func TestPostRepo_AddRejectsDuplicateSlug(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()
	author := seedAuthor(t, d)

	require.NoError(t, d.PostRepo().Add(ctx, newPost(author, "Hello World", models.CategoryWritings, false, time.Now())))

	err := d.PostRepo().Add(ctx, newPost(author, "hello,  WORLD!", models.CategoryProjects, false, time.Now()))
	require.Error(t, err)
	assert.True(t, errs.IsDuplicateTitle(err))

	apiErr, ok := err.(*errs.ApiErr)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	count, err := d.PostRepo().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestPostRepo_AddRejectsEmptySlug(t *testing.T) {
	d := newTestDatabase(t)
	author := seedAuthor(t, d)

	err := d.PostRepo().Add(context.Background(), newPost(author, "!!!", models.CategoryWritings, false, time.Now()))
	require.Error(t, err)
	assert.True(t, errs.IsBadRequest(err))
}

func TestPostRepo_Update(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()
	author := seedAuthor(t, d)

	post := newPost(author, "First Title", models.CategoryWritings, false, time.Now())
	require.NoError(t, d.PostRepo().Add(ctx, post))
	readTime := post.ReadTime

	title := "Second Title"
	updated, err := d.PostRepo().Update(ctx, post.ID, models.PostPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "second-title", updated.Slug)
	assert.Equal(t, readTime, updated.ReadTime)
	assert.Equal(t, post.Body, updated.Body)

	body := strings.Repeat("longer ", 450)
	published := true
	link := "https://github.com/example/repo"
	updated, err = d.PostRepo().Update(ctx, post.ID, models.PostPatch{Body: &body, Published: &published, GithubLink: &link})
	require.NoError(t, err)
	assert.Equal(t, "3 min read", updated.ReadTime)
	assert.Equal(t, "second-title", updated.Slug)
	assert.True(t, updated.Published)
	require.NotNil(t, updated.GithubLink)
	assert.Equal(t, link, *updated.GithubLink)
}

func TestPostRepo_UpdateConflictsAndMissing(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()
	author := seedAuthor(t, d)

	first := newPost(author, "Alpha", models.CategoryWritings, false, time.Now())
	second := newPost(author, "Beta", models.CategoryWritings, false, time.Now())
	require.NoError(t, d.PostRepo().Add(ctx, first))
	require.NoError(t, d.PostRepo().Add(ctx, second))

	title := "ALPHA"
	_, err := d.PostRepo().Update(ctx, second.ID, models.PostPatch{Title: &title})
	assert.True(t, errs.IsDuplicateTitle(err))

	stored, err := d.PostRepo().FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "beta", stored.Slug)

	_, err = d.PostRepo().Update(ctx, uuid.New(), models.PostPatch{Title: &title})
	assert.True(t, errs.IsNotFound(err))
}

func TestPostRepo_FindBySlug(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()
	author := seedAuthor(t, d)

	draft := newPost(author, "Draft Post", models.CategoryWritings, false, time.Now())
	require.NoError(t, d.PostRepo().Add(ctx, draft))

	_, err := d.PostRepo().FindBySlug(ctx, "draft-post", true)
	assert.True(t, errs.IsNotFound(err))

	found, err := d.PostRepo().FindBySlug(ctx, " Draft-Post ", false)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, found.ID)
}

func TestPostRepo_Delete(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()
	author := seedAuthor(t, d)

	post := newPost(author, "Short Lived", models.CategoryProjects, true, time.Now())
	require.NoError(t, d.PostRepo().Add(ctx, post))

	deleted, err := d.PostRepo().Delete(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Short Lived", deleted.Title)

	_, err = d.PostRepo().FindByID(ctx, post.ID)
	assert.True(t, errs.IsNotFound(err))

	_, err = d.PostRepo().Delete(ctx, post.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestPostRepo_List(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()
	author := seedAuthor(t, d)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		category := models.CategoryWritings
		if i%3 == 0 {
			category = models.CategoryProjects
		}
		post := newPost(author, fmt.Sprintf("Post %02d", i), category, i%2 == 0, base.AddDate(0, 0, i))
		require.NoError(t, d.PostRepo().Add(ctx, post))
	}

	published := true
	posts, total, err := d.PostRepo().List(ctx, models.PostListOptions{
		Filter: models.PostFilter{Published: &published},
		Sort:   models.SortByDateDesc,
		Limit:  4,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	require.Len(t, posts, 4)
	assert.Equal(t, "Post 10", posts[0].Title)
	assert.Equal(t, "Post 04", posts[3].Title)
	for _, p := range posts {
		assert.True(t, p.Published)
	}

	posts, total, err = d.PostRepo().List(ctx, models.PostListOptions{
		Filter: models.PostFilter{Published: &published},
		Sort:   models.SortByDateDesc,
		Offset: 4,
		Limit:  4,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	require.Len(t, posts, 2)
	assert.Equal(t, "Post 00", posts[1].Title)

	projects := models.CategoryProjects
	posts, total, err = d.PostRepo().List(ctx, models.PostListOptions{
		Filter:     models.PostFilter{Category: &projects, Published: &published},
		Limit:      10,
		WithAuthor: true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, posts, 2)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "Owner", posts[0].Author.Name)

	posts, total, err = d.PostRepo().List(ctx, models.PostListOptions{Offset: 40, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestPostRepo_ListSearch(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()
	author := seedAuthor(t, d)

	gopher := newPost(author, "Learning GoLang", models.CategoryWritings, true, time.Now())
	other := newPost(author, "Gardening", models.CategoryWritings, true, time.Now())
	other.Body = "tomatoes need 100% sun"
	require.NoError(t, d.PostRepo().Add(ctx, gopher))
	require.NoError(t, d.PostRepo().Add(ctx, other))

	posts, total, err := d.PostRepo().List(ctx, models.PostListOptions{
		Filter: models.PostFilter{Search: "golang"},
		Limit:  10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, posts, 1)
	assert.Equal(t, gopher.ID, posts[0].ID)

	posts, _, err = d.PostRepo().List(ctx, models.PostListOptions{
		Filter: models.PostFilter{Search: "100%"},
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, other.ID, posts[0].ID)

	_, total, err = d.PostRepo().List(ctx, models.PostListOptions{
		Filter: models.PostFilter{Search: "%"},
		Limit:  10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestPostRepo_ListSearchFoldsUnicodeCase(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()
	author := seedAuthor(t, d)

	dessert := newPost(author, "Crème Brûlée", models.CategoryWritings, true, time.Now())
	require.NoError(t, d.PostRepo().Add(ctx, dessert))

	search := func(term string) int64 {
		t.Helper()
		_, total, err := d.PostRepo().List(ctx, models.PostListOptions{
			Filter: models.PostFilter{Search: term},
			Limit:  10,
		})
		require.NoError(t, err)
		return total
	}

	assert.EqualValues(t, 1, search("CRÈME"))
	assert.EqualValues(t, 1, search("brûlée"))
	assert.Zero(t, search("ÉCLAIR"))

	body := "Un ÉCLAIR au chocolat"
	_, err := d.PostRepo().Update(ctx, dessert.ID, models.PostPatch{Body: &body})
	require.NoError(t, err)
	assert.EqualValues(t, 1, search("éclair"))
	assert.EqualValues(t, 1, search("CRÈME"), "title stays searchable after a body edit")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
