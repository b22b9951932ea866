package neo4jstore

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/siherrmann/newsgraph/core/graph"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
)

var relationTypePattern = regexp.MustCompile(`^[A-Z0-9_]+$`)

// Store is the Neo4j implementation of graph.Store.
//
//	(:Article {id, externalId, title, text, authorId, metadata})
//	(:Entity {id, name, nameKey, type})
//	(:Entity)-[:MENTIONED_IN {count}]->(:Article)
//	(:Entity)-[:<RELATION_TYPE> {id, type, confidence}]->(:Entity)
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	log      *slog.Logger
}

var _ graph.Store = (*Store)(nil)

// NewStore connects to Neo4j and verifies connectivity.
func NewStore(ctx context.Context, config *helper.Neo4jConfiguration, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(config.Username, config.Password, ""))
	if err != nil {
		return nil, helper.NewError("create driver", fmt.Errorf("%w: %v", helper.ErrStoreUnavailable, err))
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, helper.NewError("verify connectivity", fmt.Errorf("%w: %v", helper.ErrStoreUnavailable, err))
	}

	logger.Info("Connected to neo4j", slog.String("uri", config.URI), slog.String("database", config.Database))

	return &Store{driver: driver, database: config.Database, log: logger}, nil
}

// EnsureConstraints creates the uniqueness constraints backing the merge semantics.
func (s *Store) EnsureConstraints(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, query := range constraintQueries {
		_, err := session.Run(ctx, query, nil)
		if err != nil {
			return helper.NewError("ensure constraints", err)
		}
	}

	s.log.Info("Checked/created neo4j constraints")
	return nil
}

var constraintQueries = []string{
	`CREATE CONSTRAINT article_external_id IF NOT EXISTS FOR (a:Article) REQUIRE a.externalId IS UNIQUE`,
	`CREATE CONSTRAINT article_id IF NOT EXISTS FOR (a:Article) REQUIRE a.id IS UNIQUE`,
	`CREATE CONSTRAINT entity_identity IF NOT EXISTS FOR (e:Entity) REQUIRE (e.nameKey, e.type) IS UNIQUE`,
	`CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (e:Entity) REQUIRE e.id IS UNIQUE`,
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// Begin opens a write session with an explicit transaction.
func (s *Store) Begin(ctx context.Context) (graph.Tx, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		_ = session.Close(ctx)
		return nil, helper.NewError("begin", fmt.Errorf("%w: %v", helper.ErrStoreUnavailable, err))
	}
	return &storeTx{session: session, tx: tx}, nil
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	err := s.driver.VerifyConnectivity(ctx)
	if err != nil {
		return helper.NewError("ping", fmt.Errorf("%w: %v", helper.ErrStoreUnavailable, err))
	}
	return nil
}

// read runs a query in a read session and collects all records.
func (s *Store) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

const articleColumns = `a.id AS id, a.externalId AS external_id, a.title AS title, a.text AS text,
		       a.authorId AS author_id, a.metadata AS metadata, a.createdAt AS created_at, a.updatedAt AS updated_at`

const entityColumns = `e.id AS id, e.name AS name, e.type AS type, e.createdAt AS created_at`

const relationColumns = `r.id AS id, source.id AS source_id, target.id AS target_id, type(r) AS relation_type,
		       r.type AS original_type, r.confidence AS confidence, r.createdAt AS created_at, r.updatedAt AS updated_at`

// SelectArticleByExternalID returns helper.ErrNotFound if the article does not exist.
func (s *Store) SelectArticleByExternalID(ctx context.Context, externalID string) (*model.Article, error) {
	records, err := s.read(ctx, `
		MATCH (a:Article {externalId: $externalId})
		RETURN `+articleColumns,
		map[string]any{"externalId": externalID},
	)
	if err != nil {
		return nil, helper.NewError("select article", err)
	}
	if len(records) == 0 {
		return nil, helper.NewError("select article", fmt.Errorf("%w: article %s", helper.ErrNotFound, externalID))
	}
	return articleFromRecord(records[0])
}

// SelectArticle returns the article with the given internal id.
func (s *Store) SelectArticle(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	records, err := s.read(ctx, `
		MATCH (a:Article {id: $id})
		RETURN `+articleColumns,
		map[string]any{"id": id.String()},
	)
	if err != nil {
		return nil, helper.NewError("select article", err)
	}
	if len(records) == 0 {
		return nil, helper.NewError("select article", fmt.Errorf("%w: article %s", helper.ErrNotFound, id))
	}
	return articleFromRecord(records[0])
}

// SelectArticles returns the newest articles.
func (s *Store) SelectArticles(ctx context.Context, limit int) ([]*model.Article, error) {
	records, err := s.read(ctx, `
		MATCH (a:Article)
		RETURN `+articleColumns+`
		ORDER BY a.createdAt DESC, a.externalId
		LIMIT $limit`,
		map[string]any{"limit": limit},
	)
	if err != nil {
		return nil, helper.NewError("select articles", err)
	}

	articles := make([]*model.Article, 0, len(records))
	for _, record := range records {
		article, err := articleFromRecord(record)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// SelectArticleEntities returns the entities of an article, most mentioned first.
func (s *Store) SelectArticleEntities(ctx context.Context, articleID uuid.UUID) ([]*model.ArticleEntity, error) {
	records, err := s.read(ctx, `
		MATCH (e:Entity)-[m:MENTIONED_IN]->(:Article {id: $articleId})
		RETURN `+entityColumns+`, m.count AS count
		ORDER BY count DESC, e.nameKey`,
		map[string]any{"articleId": articleID.String()},
	)
	if err != nil {
		return nil, helper.NewError("select article entities", err)
	}

	entities := make([]*model.ArticleEntity, 0, len(records))
	for _, record := range records {
		entity, err := entityFromRecord(record)
		if err != nil {
			return nil, err
		}
		entities = append(entities, &model.ArticleEntity{Entity: *entity, MentionCount: intFromRecord(record, "count")})
	}
	return entities, nil
}

// SelectRelationsAmong returns the relations with both endpoints in entityIDs.
func (s *Store) SelectRelationsAmong(ctx context.Context, entityIDs []uuid.UUID) ([]*model.Relation, error) {
	ids := make([]string, len(entityIDs))
	for i, id := range entityIDs {
		ids[i] = id.String()
	}

	records, err := s.read(ctx, `
		MATCH (source:Entity)-[r]->(target:Entity)
		WHERE source.id IN $ids AND target.id IN $ids AND type(r) <> 'MENTIONED_IN'
		RETURN `+relationColumns+`
		ORDER BY source.nameKey, relation_type, target.nameKey`,
		map[string]any{"ids": ids},
	)
	if err != nil {
		return nil, helper.NewError("select relations among", err)
	}

	relations := make([]*model.Relation, 0, len(records))
	for _, record := range records {
		relation, err := relationFromRecord(record)
		if err != nil {
			return nil, err
		}
		relations = append(relations, relation)
	}
	return relations, nil
}

// SelectEntity returns the entity with the given id.
func (s *Store) SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	records, err := s.read(ctx, `
		MATCH (e:Entity {id: $id})
		RETURN `+entityColumns,
		map[string]any{"id": id.String()},
	)
	if err != nil {
		return nil, helper.NewError("select entity", err)
	}
	if len(records) == 0 {
		return nil, helper.NewError("select entity", fmt.Errorf("%w: entity %s", helper.ErrNotFound, id))
	}
	return entityFromRecord(records[0])
}

// SelectEntityByName returns the entity with the given lowercase name and type.
func (s *Store) SelectEntityByName(ctx context.Context, name string, entityType model.EntityType) (*model.Entity, error) {
	records, err := s.read(ctx, `
		MATCH (e:Entity {nameKey: $nameKey, type: $type})
		RETURN `+entityColumns,
		map[string]any{"nameKey": strings.ToLower(strings.TrimSpace(name)), "type": string(entityType)},
	)
	if err != nil {
		return nil, helper.NewError("select entity by name", err)
	}
	if len(records) == 0 {
		return nil, helper.NewError("select entity by name", fmt.Errorf("%w: entity %s (%s)", helper.ErrNotFound, name, entityType))
	}
	return entityFromRecord(records[0])
}

// SearchEntities orders matches by name length, so exact and short names come first.
func (s *Store) SearchEntities(ctx context.Context, term string, entityType *model.EntityType, limit int) ([]*model.Entity, error) {
	records, err := s.read(ctx, `
		MATCH (e:Entity)
		WHERE e.nameKey CONTAINS $term AND ($type IS NULL OR e.type = $type)
		RETURN `+entityColumns+`
		ORDER BY size(e.nameKey), e.nameKey
		LIMIT $limit`,
		searchParams(term, entityType, limit),
	)
	if err != nil {
		return nil, helper.NewError("search entities", err)
	}

	entities := make([]*model.Entity, 0, len(records))
	for _, record := range records {
		entity, err := entityFromRecord(record)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// SelectRelationsOfEntity returns the relations touching an entity.
func (s *Store) SelectRelationsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Relation, error) {
	records, err := s.read(ctx, `
		MATCH (source:Entity)-[r]->(target:Entity)
		WHERE (source.id = $entityId OR target.id = $entityId) AND type(r) <> 'MENTIONED_IN'
		RETURN `+relationColumns+`
		ORDER BY confidence DESC, relation_type`,
		map[string]any{"entityId": entityID.String()},
	)
	if err != nil {
		return nil, helper.NewError("select relations of entity", err)
	}

	relations := make([]*model.Relation, 0, len(records))
	for _, record := range records {
		relation, err := relationFromRecord(record)
		if err != nil {
			return nil, err
		}
		relations = append(relations, relation)
	}
	return relations, nil
}

// SelectMentionsOfEntity returns the mention edges of an entity.
func (s *Store) SelectMentionsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Mention, error) {
	records, err := s.read(ctx, `
		MATCH (e:Entity {id: $entityId})-[m:MENTIONED_IN]->(a:Article)
		RETURN e.id AS entity_id, a.id AS article_id, a.externalId AS external_id, m.count AS count, m.updatedAt AS updated_at
		ORDER BY a.externalId`,
		map[string]any{"entityId": entityID.String()},
	)
	if err != nil {
		return nil, helper.NewError("select mentions of entity", err)
	}

	mentions := make([]*model.Mention, 0, len(records))
	for _, record := range records {
		mention := &model.Mention{
			ArticleExternalID: stringFromRecord(record, "external_id"),
			Count:             intFromRecord(record, "count"),
			UpdatedAt:         timeFromRecord(record, "updated_at"),
		}
		mention.EntityID, err = uuidFromRecord(record, "entity_id")
		if err != nil {
			return nil, err
		}
		mention.ArticleID, err = uuidFromRecord(record, "article_id")
		if err != nil {
			return nil, err
		}
		mentions = append(mentions, mention)
	}
	return mentions, nil
}

// SelectStatistics counts articles, entities per type and relations.
func (s *Store) SelectStatistics(ctx context.Context, topRelationTypes int) (*model.GraphStatistics, error) {
	stats := &model.GraphStatistics{EntitiesByType: map[model.EntityType]int{}}

	records, err := s.read(ctx, `MATCH (a:Article) RETURN count(a) AS count`, nil)
	if err != nil {
		return nil, helper.NewError("count articles", err)
	}
	if len(records) > 0 {
		stats.ArticleCount = intFromRecord(records[0], "count")
	}

	records, err = s.read(ctx, `MATCH (e:Entity) RETURN e.type AS type, count(e) AS count`, nil)
	if err != nil {
		return nil, helper.NewError("count entities", err)
	}
	for _, record := range records {
		count := intFromRecord(record, "count")
		stats.EntitiesByType[model.EntityType(stringFromRecord(record, "type"))] = count
		stats.EntityCount += count
	}

	records, err = s.read(ctx, `MATCH (:Entity)-[r]->(:Entity) WHERE type(r) <> 'MENTIONED_IN' RETURN count(r) AS count`, nil)
	if err != nil {
		return nil, helper.NewError("count relations", err)
	}
	if len(records) > 0 {
		stats.RelationCount = intFromRecord(records[0], "count")
	}

	records, err = s.read(ctx, `
		MATCH (:Entity)-[r]->(:Entity) WHERE type(r) <> 'MENTIONED_IN'
		RETURN type(r) AS relation_type, count(r) AS count
		ORDER BY count DESC, relation_type
		LIMIT $limit`,
		map[string]any{"limit": topRelationTypes},
	)
	if err != nil {
		return nil, helper.NewError("top relation types", err)
	}
	for _, record := range records {
		stats.TopRelationTypes = append(stats.TopRelationTypes, model.RelationTypeCount{
			RelationType: stringFromRecord(record, "relation_type"),
			Count:        intFromRecord(record, "count"),
		})
	}

	return stats, nil
}

// Close closes the driver.
func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

// storeTx is one explicit transaction. Edge writes validate their input
// before running a query since a failed query terminates the transaction.
type storeTx struct {
	session neo4j.SessionWithContext
	tx      neo4j.ExplicitTransaction
}

func (t *storeTx) UpsertArticle(ctx context.Context, article *model.Article) error {
	if strings.TrimSpace(article.ExternalID) == "" {
		return helper.NewError("upsert article", fmt.Errorf("external id is required"))
	}
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}

	metadata, err := article.Metadata.Value()
	if err != nil {
		return helper.NewError("marshal metadata", err)
	}

	result, err := t.tx.Run(ctx, `
		MERGE (a:Article {externalId: $externalId})
		ON CREATE SET a.id = $id, a.createdAt = datetime()
		SET a.title = $title, a.text = $text, a.authorId = $authorId, a.metadata = $metadata, a.updatedAt = datetime()
		RETURN a.id AS id, a.createdAt AS created_at, a.updatedAt AS updated_at`,
		map[string]any{
			"externalId": article.ExternalID,
			"id":         article.ID.String(),
			"title":      article.Title,
			"text":       article.Text,
			"authorId":   article.AuthorID,
			"metadata":   metadata,
		},
	)
	if err != nil {
		return helper.NewError("upsert article", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return helper.NewError("upsert article", err)
	}
	article.ID, err = uuidFromRecord(record, "id")
	if err != nil {
		return err
	}
	article.CreatedAt = timeFromRecord(record, "created_at")
	article.UpdatedAt = timeFromRecord(record, "updated_at")
	return nil
}

func (t *storeTx) FindOrCreateEntity(ctx context.Context, name string, entityType model.EntityType) (*model.Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, helper.NewError("find or create entity", fmt.Errorf("name is required"))
	}

	result, err := t.tx.Run(ctx, `
		MERGE (e:Entity {nameKey: $nameKey, type: $type})
		ON CREATE SET e.id = $id, e.name = $name, e.createdAt = datetime()
		RETURN `+entityColumns,
		map[string]any{
			"nameKey": strings.ToLower(name),
			"type":    string(entityType),
			"id":      uuid.New().String(),
			"name":    name,
		},
	)
	if err != nil {
		return nil, helper.NewError("find or create entity", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return nil, helper.NewError("find or create entity", err)
	}
	return entityFromRecord(record)
}

func (t *storeTx) MergeMention(ctx context.Context, entityID uuid.UUID, articleID uuid.UUID, count int) error {
	if count < 1 {
		return helper.NewError("merge mention", fmt.Errorf("count must be positive, got %d", count))
	}

	result, err := t.tx.Run(ctx, `
		MATCH (e:Entity {id: $entityId}), (a:Article {id: $articleId})
		MERGE (e)-[m:MENTIONED_IN]->(a)
		SET m.count = $count, m.updatedAt = datetime()
		RETURN count(m) AS written`,
		map[string]any{"entityId": entityID.String(), "articleId": articleID.String(), "count": count},
	)
	if err != nil {
		return helper.NewError("merge mention", err)
	}
	return expectWritten(ctx, result, "merge mention")
}

func (t *storeTx) MergeRelation(ctx context.Context, relation *model.Relation) error {
	label, err := relationTypeLabel(relation.RelationType)
	if err != nil {
		return helper.NewError("merge relation", err)
	}
	if relation.SourceEntityID == relation.TargetEntityID {
		return helper.NewError("merge relation", fmt.Errorf("self relation on %s", relation.SourceEntityID))
	}
	if relation.ID == uuid.Nil {
		relation.ID = uuid.New()
	}

	result, err := t.tx.Run(ctx, `
		MATCH (source:Entity {id: $sourceId}), (target:Entity {id: $targetId})
		MERGE (source)-[r:`+label+`]->(target)
		ON CREATE SET r.id = $id, r.createdAt = datetime()
		SET r.type = $originalType, r.confidence = $confidence, r.updatedAt = datetime()
		RETURN count(r) AS written`,
		map[string]any{
			"sourceId":     relation.SourceEntityID.String(),
			"targetId":     relation.TargetEntityID.String(),
			"id":           relation.ID.String(),
			"originalType": relation.OriginalType,
			"confidence":   relation.Confidence,
		},
	)
	if err != nil {
		return helper.NewError("merge relation", err)
	}
	return expectWritten(ctx, result, "merge relation")
}

func (t *storeTx) DeleteArticle(ctx context.Context, externalID string) (int, error) {
	result, err := t.tx.Run(ctx, `
		MATCH (a:Article {externalId: $externalId})
		WITH a, a.id AS id
		DETACH DELETE a
		RETURN count(id) AS deleted`,
		map[string]any{"externalId": externalID},
	)
	if err != nil {
		return 0, helper.NewError("delete article", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, helper.NewError("delete article", err)
	}
	return intFromRecord(record, "deleted"), nil
}

func (t *storeTx) Commit(ctx context.Context) error {
	defer t.session.Close(ctx)

	err := t.tx.Commit(ctx)
	if err != nil {
		return helper.NewError("commit", fmt.Errorf("%w: %v", helper.ErrStoreUnavailable, err))
	}
	return nil
}

func (t *storeTx) Rollback(ctx context.Context) error {
	defer t.session.Close(ctx)

	err := t.tx.Rollback(ctx)
	if err != nil {
		return helper.NewError("rollback", err)
	}
	return nil
}

// relationTypeLabel validates a normalized relation type for use as a
// relationship label, which cannot be passed as a query parameter.
func relationTypeLabel(relationType string) (string, error) {
	if !relationTypePattern.MatchString(relationType) || relationType == "MENTIONED_IN" {
		return "", fmt.Errorf("%w: %q", helper.ErrMalformedRelationType, relationType)
	}
	return "`" + relationType + "`", nil
}

func expectWritten(ctx context.Context, result neo4j.ResultWithContext, trace string) error {
	record, err := result.Single(ctx)
	if err != nil {
		return helper.NewError(trace, err)
	}
	if intFromRecord(record, "written") == 0 {
		return helper.NewError(trace, fmt.Errorf("%w: endpoint node", helper.ErrNotFound))
	}
	return nil
}

// searchParams lowercases the term and passes a nil type for an unfiltered search.
func searchParams(term string, entityType *model.EntityType, limit int) map[string]any {
	params := map[string]any{
		"term":  strings.ToLower(strings.TrimSpace(term)),
		"type":  nil,
		"limit": limit,
	}
	if entityType != nil {
		params["type"] = string(*entityType)
	}
	return params
}

func articleFromRecord(record *neo4j.Record) (*model.Article, error) {
	id, err := uuidFromRecord(record, "id")
	if err != nil {
		return nil, err
	}

	article := &model.Article{
		ID:         id,
		ExternalID: stringFromRecord(record, "external_id"),
		Title:      stringFromRecord(record, "title"),
		Text:       stringFromRecord(record, "text"),
		AuthorID:   stringFromRecord(record, "author_id"),
		CreatedAt:  timeFromRecord(record, "created_at"),
		UpdatedAt:  timeFromRecord(record, "updated_at"),
	}
	if raw := stringFromRecord(record, "metadata"); raw != "" {
		if err := article.Metadata.Scan(raw); err != nil {
			return nil, helper.NewError("scan metadata", err)
		}
	}
	return article, nil
}

func entityFromRecord(record *neo4j.Record) (*model.Entity, error) {
	id, err := uuidFromRecord(record, "id")
	if err != nil {
		return nil, err
	}
	return &model.Entity{
		ID:        id,
		Name:      stringFromRecord(record, "name"),
		Type:      model.EntityType(stringFromRecord(record, "type")),
		CreatedAt: timeFromRecord(record, "created_at"),
	}, nil
}

func relationFromRecord(record *neo4j.Record) (*model.Relation, error) {
	relation := &model.Relation{
		RelationType: stringFromRecord(record, "relation_type"),
		OriginalType: stringFromRecord(record, "original_type"),
		Confidence:   floatFromRecord(record, "confidence"),
		CreatedAt:    timeFromRecord(record, "created_at"),
		UpdatedAt:    timeFromRecord(record, "updated_at"),
	}

	var err error
	if relation.ID, err = uuidFromRecord(record, "id"); err != nil {
		return nil, err
	}
	if relation.SourceEntityID, err = uuidFromRecord(record, "source_id"); err != nil {
		return nil, err
	}
	if relation.TargetEntityID, err = uuidFromRecord(record, "target_id"); err != nil {
		return nil, err
	}
	return relation, nil
}

func stringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func intFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	switch i := val.(type) {
	case int64:
		return int(i)
	case int:
		return i
	}
	return 0
}

func floatFromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	switch f := val.(type) {
	case float64:
		return f
	case int64:
		return float64(f)
	}
	return 0
}

func timeFromRecord(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return time.Time{}
	}
	if t, ok := val.(time.Time); ok {
		return t
	}
	return time.Time{}
}

func uuidFromRecord(record *neo4j.Record, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(stringFromRecord(record, key))
	if err != nil {
		return uuid.Nil, helper.NewError("parse "+key, err)
	}
	return id, nil
}
