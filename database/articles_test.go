package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticlesNewArticlesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewArticlesDBHandler", func(t *testing.T) {
		articlesDbHandler, err := NewArticlesDBHandler(database, true)
		assert.NoError(t, err, "Expected NewArticlesDBHandler to not return an error")
		require.NotNil(t, articlesDbHandler, "Expected NewArticlesDBHandler to return a non-nil instance")
		require.NotNil(t, articlesDbHandler.db.Instance, "Expected a non-nil database connection instance")
	})

	t.Run("Invalid call NewArticlesDBHandler with nil database", func(t *testing.T) {
		_, err := NewArticlesDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating ArticlesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestArticlesUpsert(t *testing.T) {
	store := initStore(t)
	ctx := context.Background()

	t.Run("Insert new article", func(t *testing.T) {
		article := &model.Article{
			ExternalID: "news-upsert-1",
			Title:      "SpaceX launch",
			Text:       "Elon Musk founded SpaceX.",
			AuthorID:   "author-1",
			Metadata:   model.Metadata{"lang": "en"},
		}

		err := store.Articles.UpsertArticle(ctx, article)
		require.NoError(t, err, "Expected UpsertArticle to not return an error")
		assert.NotEqual(t, uuid.Nil, article.ID, "Expected article to get an internal id")
		assert.WithinDuration(t, time.Now(), article.CreatedAt, 5*time.Second)
		assert.Equal(t, "en", article.Metadata.String("lang"))
	})

	t.Run("Upsert keeps the first internal id", func(t *testing.T) {
		first := &model.Article{ExternalID: "news-upsert-2", Title: "v1"}
		require.NoError(t, store.Articles.UpsertArticle(ctx, first))

		second := &model.Article{ID: uuid.New(), ExternalID: "news-upsert-2", Title: "v2"}
		require.NoError(t, store.Articles.UpsertArticle(ctx, second))

		assert.Equal(t, first.ID, second.ID, "Expected the stored internal id to be kept")
		assert.Equal(t, "v2", second.Title, "Expected the title to be updated")
	})

	t.Run("Empty external id is rejected", func(t *testing.T) {
		err := store.Articles.UpsertArticle(ctx, &model.Article{Title: "no id"})
		assert.Error(t, err)
	})
}

func TestArticlesSelect(t *testing.T) {
	store := initStore(t)
	ctx := context.Background()

	article := &model.Article{ExternalID: "news-select-1", Title: "Madrid"}
	require.NoError(t, store.Articles.UpsertArticle(ctx, article))

	t.Run("Select by external id", func(t *testing.T) {
		found, err := store.Articles.SelectArticleByExternalID(ctx, "news-select-1")
		require.NoError(t, err)
		assert.Equal(t, article.ID, found.ID)
		assert.Equal(t, "Madrid", found.Title)
	})

	t.Run("Select by internal id", func(t *testing.T) {
		found, err := store.Articles.SelectArticle(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, "news-select-1", found.ExternalID)
	})

	t.Run("Missing article returns ErrNotFound", func(t *testing.T) {
		_, err := store.Articles.SelectArticleByExternalID(ctx, "does-not-exist")
		assert.True(t, errors.Is(err, helper.ErrNotFound), "Expected ErrNotFound, got %v", err)
	})

	t.Run("Select all and count", func(t *testing.T) {
		articles, err := store.Articles.SelectAllArticles(ctx, 100)
		require.NoError(t, err)
		assert.NotEmpty(t, articles)

		count, err := store.Articles.CountArticles(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, 1)
	})

	t.Run("Delete article", func(t *testing.T) {
		deleted, err := store.Articles.DeleteArticle(ctx, "news-select-1")
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		_, err = store.Articles.SelectArticleByExternalID(ctx, "news-select-1")
		assert.ErrorIs(t, err, helper.ErrNotFound)
	})
}
