package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/core/graph"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	loadSql "github.com/siherrmann/newsgraph/sql"
)

// GraphStore is the Postgres implementation of graph.Store built from the table handlers.
type GraphStore struct {
	DB        *helper.Database
	Articles  *ArticlesDBHandler
	Entities  *EntitiesDBHandler
	Mentions  *MentionsDBHandler
	Relations *RelationsDBHandler
}

var _ graph.Store = (*GraphStore)(nil)

// NewGraphStore initializes extensions and all handlers in dependency order.
func NewGraphStore(db *helper.Database, force bool) (*GraphStore, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	articles, err := NewArticlesDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create articles handler", err)
	}

	entities, err := NewEntitiesDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	mentions, err := NewMentionsDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create mentions handler", err)
	}

	relations, err := NewRelationsDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create relations handler", err)
	}

	return &GraphStore{
		DB:        db,
		Articles:  articles,
		Entities:  entities,
		Mentions:  mentions,
		Relations: relations,
	}, nil
}

// Begin starts a transaction whose edge writes run in savepoints.
func (s *GraphStore) Begin(ctx context.Context) (graph.Tx, error) {
	tx, err := s.DB.Instance.BeginTx(ctx, nil)
	if err != nil {
		return nil, helper.NewError("begin", fmt.Errorf("%w: %v", helper.ErrStoreUnavailable, err))
	}

	return &graphTx{
		tx:        tx,
		articles:  s.Articles.WithTx(tx),
		entities:  s.Entities.WithTx(tx),
		mentions:  s.Mentions.WithTx(tx),
		relations: s.Relations.WithTx(tx),
	}, nil
}

// Ping checks the database connection.
func (s *GraphStore) Ping(ctx context.Context) error {
	err := s.DB.Instance.PingContext(ctx)
	if err != nil {
		return helper.NewError("ping", fmt.Errorf("%w: %v", helper.ErrStoreUnavailable, err))
	}
	return nil
}

// SelectArticleByExternalID returns helper.ErrNotFound if the article does not exist.
func (s *GraphStore) SelectArticleByExternalID(ctx context.Context, externalID string) (*model.Article, error) {
	ctx, cancel := s.DB.WithTimeout(ctx)
	defer cancel()
	return s.Articles.SelectArticleByExternalID(ctx, externalID)
}

// SelectArticle returns the article with the given internal id.
func (s *GraphStore) SelectArticle(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	ctx, cancel := s.DB.WithTimeout(ctx)
	defer cancel()
	return s.Articles.SelectArticle(ctx, id)
}

// SelectArticles returns the newest articles.
func (s *GraphStore) SelectArticles(ctx context.Context, limit int) ([]*model.Article, error) {
	ctx, cancel := s.DB.WithTimeout(ctx)
	defer cancel()
	return s.Articles.SelectAllArticles(ctx, limit)
}

// SelectArticleEntities returns the entities of an article, most mentioned first.
func (s *GraphStore) SelectArticleEntities(ctx context.Context, articleID uuid.UUID) ([]*model.ArticleEntity, error) {
	ctx, cancel := s.DB.WithTimeout(ctx)
	defer cancel()
	return s.Mentions.SelectArticleEntities(ctx, articleID)
}

// SelectRelationsAmong returns the relations with both endpoints in entityIDs.
func (s *GraphStore) SelectRelationsAmong(ctx context.Context, entityIDs []uuid.UUID) ([]*model.Relation, error) {
	ctx, cancel := s.DB.WithTimeout(ctx)
	defer cancel()
	return s.Relations.SelectRelationsAmong(ctx, entityIDs)
}

// SelectEntity returns the entity with the given id.
func (s *GraphStore) SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	ctx, cancel := s.DB.WithTimeout(ctx)
	defer cancel()
	return s.Entities.SelectEntity(ctx, id)
}

// SelectEntityByName returns the entity with the given lowercase name and type.
func (s *GraphStore) SelectEntityByName(ctx context.Context, name string, entityType model.EntityType) (*model.Entity, error) {
	ctx, cancel := s.DB.WithTimeout(ctx)
	defer cancel()
	return s.Entities.SelectEntityByName(ctx, name, entityType)
}

// SearchEntities ranks name matches by trigram similarity. Without a term
// the entities of the given type are listed by name.
func (s *GraphStore) SearchEntities(ctx context.Context, term string, entityType *model.EntityType, limit int) ([]*model.Entity, error) {
	ctx, cancel := s.DB.WithTimeout(ctx)
	defer cancel()

	if term == "" && entityType != nil {
		return s.Entities.SelectEntitiesByType(ctx, *entityType, limit)
	}
	return s.Entities.SelectEntitiesBySearch(ctx, term, entityType, limit)
}

// SelectRelationsOfEntity returns the relations touching an entity.
func (s *GraphStore) SelectRelationsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Relation, error) {
	ctx, cancel := s.DB.WithTimeout(ctx)
	defer cancel()
	return s.Relations.SelectRelationsOfEntity(ctx, entityID)
}

// SelectMentionsOfEntity returns the mention edges of an entity.
func (s *GraphStore) SelectMentionsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Mention, error) {
	ctx, cancel := s.DB.WithTimeout(ctx)
	defer cancel()
	return s.Mentions.SelectMentionsOfEntity(ctx, entityID)
}

// SelectStatistics counts articles, entities per type and relations.
func (s *GraphStore) SelectStatistics(ctx context.Context, topRelationTypes int) (*model.GraphStatistics, error) {
	ctx, cancel := s.DB.WithTimeout(ctx)
	defer cancel()

	stats := &model.GraphStatistics{}

	var err error
	stats.ArticleCount, err = s.Articles.CountArticles(ctx)
	if err != nil {
		return nil, helper.NewError("count articles", err)
	}

	stats.EntitiesByType, err = s.Entities.CountEntitiesByType(ctx)
	if err != nil {
		return nil, helper.NewError("count entities", err)
	}
	for _, c := range stats.EntitiesByType {
		stats.EntityCount += c
	}

	stats.RelationCount, err = s.Relations.CountRelations(ctx)
	if err != nil {
		return nil, helper.NewError("count relations", err)
	}

	stats.TopRelationTypes, err = s.Relations.SelectTopRelationTypes(ctx, topRelationTypes)
	if err != nil {
		return nil, helper.NewError("top relation types", err)
	}

	return stats, nil
}

// Close closes the database connection.
func (s *GraphStore) Close() error {
	return s.DB.Close()
}

// graphTx runs every edge write inside its own savepoint so a failing edge
// does not abort the surrounding transaction.
type graphTx struct {
	tx        *sql.Tx
	articles  *ArticlesDBHandler
	entities  *EntitiesDBHandler
	mentions  *MentionsDBHandler
	relations *RelationsDBHandler
}

func (t *graphTx) UpsertArticle(ctx context.Context, article *model.Article) error {
	return t.articles.UpsertArticle(ctx, article)
}

func (t *graphTx) FindOrCreateEntity(ctx context.Context, name string, entityType model.EntityType) (*model.Entity, error) {
	entity := &model.Entity{Name: name, Type: entityType}
	err := t.entities.FindOrCreateEntity(ctx, entity)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (t *graphTx) MergeMention(ctx context.Context, entityID uuid.UUID, articleID uuid.UUID, count int) error {
	return t.savepoint(ctx, func() error {
		return t.mentions.MergeMention(ctx, &model.Mention{EntityID: entityID, ArticleID: articleID, Count: count})
	})
}

func (t *graphTx) MergeRelation(ctx context.Context, relation *model.Relation) error {
	return t.savepoint(ctx, func() error {
		return t.relations.MergeRelation(ctx, relation)
	})
}

func (t *graphTx) DeleteArticle(ctx context.Context, externalID string) (int, error) {
	return t.articles.DeleteArticle(ctx, externalID)
}

func (t *graphTx) Commit(ctx context.Context) error {
	err := t.tx.Commit()
	if err != nil {
		return helper.NewError("commit", fmt.Errorf("%w: %v", helper.ErrStoreUnavailable, err))
	}
	return nil
}

func (t *graphTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if err != nil && err != sql.ErrTxDone {
		return helper.NewError("rollback", err)
	}
	return nil
}

func (t *graphTx) savepoint(ctx context.Context, write func() error) error {
	_, err := t.tx.ExecContext(ctx, `SAVEPOINT edge_write`)
	if err != nil {
		return helper.NewError("savepoint", err)
	}

	writeErr := write()
	if writeErr != nil {
		_, err = t.tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT edge_write`)
		if err != nil {
			return helper.NewError("rollback to savepoint", err)
		}
		return writeErr
	}

	_, err = t.tx.ExecContext(ctx, `RELEASE SAVEPOINT edge_write`)
	if err != nil {
		return helper.NewError("release savepoint", err)
	}
	return nil
}
