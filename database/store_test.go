package database

import (
	"context"
	"testing"

	"github.com/siherrmann/newsgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphStoreTx(t *testing.T) {
	store := initStore(t)
	ctx := context.Background()

	t.Run("Failed edge write does not abort the transaction", func(t *testing.T) {
		tx, err := store.Begin(ctx)
		require.NoError(t, err)

		article := &model.Article{ExternalID: "news-tx-1", Title: "tx"}
		require.NoError(t, tx.UpsertArticle(ctx, article))
		a, err := tx.FindOrCreateEntity(ctx, "Jeff Bezos", model.EntityTypePerson)
		require.NoError(t, err)
		b, err := tx.FindOrCreateEntity(ctx, "Blue Origin", model.EntityTypeOrganization)
		require.NoError(t, err)

		// Fails on the type check constraint.
		err = tx.MergeRelation(ctx, &model.Relation{SourceEntityID: a.ID, TargetEntityID: b.ID, RelationType: "bad type", Confidence: 0.9})
		assert.Error(t, err, "Expected invalid relation type to fail")

		err = tx.MergeRelation(ctx, &model.Relation{SourceEntityID: a.ID, TargetEntityID: b.ID, RelationType: "FOUNDED", Confidence: 0.9})
		assert.NoError(t, err, "Expected the transaction to still be usable")
		assert.NoError(t, tx.MergeMention(ctx, a.ID, article.ID, 2))

		require.NoError(t, tx.Commit(ctx))

		entities, err := store.SelectArticleEntities(ctx, article.ID)
		require.NoError(t, err)
		assert.Len(t, entities, 1)
	})

	t.Run("Rollback discards writes", func(t *testing.T) {
		tx, err := store.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.UpsertArticle(ctx, &model.Article{ExternalID: "news-tx-rollback"}))
		require.NoError(t, tx.Rollback(ctx))
		assert.NoError(t, tx.Rollback(ctx), "Expected a second rollback to be a no-op")

		_, err = store.SelectArticleByExternalID(ctx, "news-tx-rollback")
		assert.Error(t, err)
	})

	t.Run("Statistics", func(t *testing.T) {
		require.NoError(t, store.Ping(ctx))

		stats, err := store.SelectStatistics(ctx, 10)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stats.ArticleCount, 1)
		assert.GreaterOrEqual(t, stats.EntityCount, 2)
		assert.GreaterOrEqual(t, stats.RelationCount, 1)
		assert.GreaterOrEqual(t, stats.EntitiesByType[model.EntityTypePerson], 1)
	})
}
