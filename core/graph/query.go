package graph

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
)

// TopRelationTypes is the number of relation types reported by Statistics.
const TopRelationTypes = 10

// ListLimit is used by ListArticles and SearchEntities for a non-positive limit.
const ListLimit = 20

// QueryService answers read queries on a Store.
type QueryService struct {
	store Store
	log   *slog.Logger
}

// NewQueryService creates a query service on store, logging to slog.Default if logger is nil.
func NewQueryService(store Store, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{store: store, log: logger}
}

// GetArticleGraph returns the article, the entities it mentions with their
// per-article count and the relations among those entities.
// It returns helper.ErrNotFound if the article does not exist.
func (q *QueryService) GetArticleGraph(ctx context.Context, externalID string) (*model.ArticleGraph, error) {
	article, err := q.store.SelectArticleByExternalID(ctx, externalID)
	if err != nil {
		return nil, helper.NewError("select article", err)
	}

	entities, err := q.store.SelectArticleEntities(ctx, article.ID)
	if err != nil {
		return nil, helper.NewError("select article entities", err)
	}

	ids := make([]uuid.UUID, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
	}

	relations := []*model.Relation{}
	if len(ids) > 0 {
		all, err := q.store.SelectRelationsAmong(ctx, ids)
		if err != nil {
			return nil, helper.NewError("select relations", err)
		}

		seen := map[string]struct{}{}
		for _, r := range all {
			if _, ok := seen[r.Key()]; ok {
				continue
			}
			seen[r.Key()] = struct{}{}
			relations = append(relations, r)
		}
	}

	q.log.Debug("Loaded article graph", slog.String("article", externalID), slog.Int("entities", len(entities)), slog.Int("relations", len(relations)))

	return &model.ArticleGraph{
		Article:       article,
		Entities:      entities,
		Relationships: relations,
	}, nil
}

// GetRelatedArticles returns up to limit articles sharing entities with the
// given article, best first.
func (q *QueryService) GetRelatedArticles(ctx context.Context, externalID string, limit int) ([]*model.RelatedArticle, error) {
	article, err := q.store.SelectArticleByExternalID(ctx, externalID)
	if err != nil {
		return nil, helper.NewError("select article", err)
	}

	related, err := RelatedArticles(ctx, q.store, article, limit)
	if err != nil {
		return nil, helper.NewError("related articles", err)
	}
	return related, nil
}

// GetRelatedArticleIDs is GetRelatedArticles reduced to external ids.
func (q *QueryService) GetRelatedArticleIDs(ctx context.Context, externalID string, limit int) ([]string, error) {
	related, err := q.GetRelatedArticles(ctx, externalID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(related))
	for i, r := range related {
		ids[i] = r.ExternalID
	}
	return ids, nil
}

// Neighborhood returns the articles reachable from the given article within
// maxHops shared-entity hops, the article itself first.
func (q *QueryService) Neighborhood(ctx context.Context, externalID string, maxHops int) ([]*TraversalResult, error) {
	article, err := q.store.SelectArticleByExternalID(ctx, externalID)
	if err != nil {
		return nil, helper.NewError("select article", err)
	}

	results, err := BFS(ctx, q.store, article, maxHops)
	if err != nil {
		return nil, helper.NewError("bfs", err)
	}
	return results, nil
}

// ListArticles returns up to limit stored articles, newest first.
func (q *QueryService) ListArticles(ctx context.Context, limit int) ([]*model.Article, error) {
	if limit <= 0 {
		limit = ListLimit
	}

	articles, err := q.store.SelectArticles(ctx, limit)
	if err != nil {
		return nil, helper.NewError("select articles", err)
	}
	return articles, nil
}

// SearchEntities returns up to limit entities whose name contains term,
// restricted to entityType if it is not nil.
func (q *QueryService) SearchEntities(ctx context.Context, term string, entityType *model.EntityType, limit int) ([]*model.Entity, error) {
	if limit <= 0 {
		limit = ListLimit
	}

	entities, err := q.store.SearchEntities(ctx, strings.TrimSpace(term), entityType, limit)
	if err != nil {
		return nil, helper.NewError("search entities", err)
	}

	q.log.Debug("Searched entities", slog.String("term", term), slog.Int("found", len(entities)))
	return entities, nil
}

// GetEntityGraph returns the relations of the named entity together with the
// entities at their other end and the articles mentioning it.
// It returns helper.ErrNotFound if the entity does not exist.
func (q *QueryService) GetEntityGraph(ctx context.Context, name string, entityType model.EntityType) (*model.EntityGraph, error) {
	entity, err := q.store.SelectEntityByName(ctx, strings.TrimSpace(name), entityType)
	if err != nil {
		return nil, helper.NewError("select entity", err)
	}

	relations, err := q.store.SelectRelationsOfEntity(ctx, entity.ID)
	if err != nil {
		return nil, helper.NewError("select relations", err)
	}

	neighbors := []*model.Entity{}
	seen := map[uuid.UUID]struct{}{entity.ID: {}}
	for _, r := range relations {
		other := r.TargetEntityID
		if other == entity.ID {
			other = r.SourceEntityID
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}

		neighbor, err := q.store.SelectEntity(ctx, other)
		if err != nil {
			return nil, helper.NewError("select neighbor", err)
		}
		neighbors = append(neighbors, neighbor)
	}

	mentions, err := q.store.SelectMentionsOfEntity(ctx, entity.ID)
	if err != nil {
		return nil, helper.NewError("select mentions", err)
	}

	articles := make([]*model.EntityArticle, 0, len(mentions))
	for _, m := range mentions {
		article, err := q.store.SelectArticle(ctx, m.ArticleID)
		if err != nil {
			return nil, helper.NewError("select mentioning article", err)
		}
		articles = append(articles, &model.EntityArticle{ExternalID: article.ExternalID, Title: article.Title, MentionCount: m.Count})
	}

	q.log.Debug("Loaded entity graph", slog.String("entity", entity.Name), slog.Int("relations", len(relations)), slog.Int("articles", len(articles)))

	return &model.EntityGraph{
		Entity:        entity,
		Neighbors:     neighbors,
		Relationships: relations,
		Articles:      articles,
	}, nil
}

// Statistics counts the stored graph and lists the most frequent relation types.
func (q *QueryService) Statistics(ctx context.Context) (*model.GraphStatistics, error) {
	stats, err := q.store.SelectStatistics(ctx, TopRelationTypes)
	if err != nil {
		return nil, helper.NewError("statistics", err)
	}
	return stats, nil
}
