package graph

import (
	"context"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/model"
)

// Store is a property graph store holding articles, entities, mentions and relations.
type Store interface {
	// Begin starts a write transaction.
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error

	// SelectArticleByExternalID returns helper.ErrNotFound if the article does not exist.
	SelectArticleByExternalID(ctx context.Context, externalID string) (*model.Article, error)
	SelectArticle(ctx context.Context, id uuid.UUID) (*model.Article, error)
	// SelectArticles returns up to limit articles, newest first.
	SelectArticles(ctx context.Context, limit int) ([]*model.Article, error)
	SelectArticleEntities(ctx context.Context, articleID uuid.UUID) ([]*model.ArticleEntity, error)

	SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error)
	// SelectEntityByName matches the name case-insensitively.
	SelectEntityByName(ctx context.Context, name string, entityType model.EntityType) (*model.Entity, error)
	// SearchEntities returns up to limit entities whose name contains term,
	// optionally restricted to one type. An empty term matches every name.
	SearchEntities(ctx context.Context, term string, entityType *model.EntityType, limit int) ([]*model.Entity, error)

	SelectRelationsAmong(ctx context.Context, entityIDs []uuid.UUID) ([]*model.Relation, error)
	// SelectRelationsOfEntity returns the incoming and outgoing relations of an entity.
	SelectRelationsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Relation, error)
	SelectMentionsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Mention, error)
	SelectStatistics(ctx context.Context, topRelationTypes int) (*model.GraphStatistics, error)

	Close() error
}

// Tx is a write transaction on a Store. All writes are merges, so replaying
// a transaction for the same article converges to the same graph.
type Tx interface {
	// UpsertArticle creates the article by external id or updates it.
	// An existing article keeps its internal id, which is written back into article.ID.
	UpsertArticle(ctx context.Context, article *model.Article) error
	// FindOrCreateEntity returns the entity with the same lowercase name and type, creating it if needed.
	FindOrCreateEntity(ctx context.Context, name string, entityType model.EntityType) (*model.Entity, error)
	// MergeMention creates the mention edge or sets its count. A failure does not abort the transaction.
	MergeMention(ctx context.Context, entityID uuid.UUID, articleID uuid.UUID, count int) error
	// MergeRelation creates the relation or updates it. A failure does not abort the transaction.
	MergeRelation(ctx context.Context, relation *model.Relation) error
	// DeleteArticle removes the article and its mention edges and returns the
	// number of deleted articles. Entities and relations are kept.
	DeleteArticle(ctx context.Context, externalID string) (int, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
