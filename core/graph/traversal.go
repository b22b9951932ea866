package graph

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/model"
)

// GraphDB is the read side of a Store used by traversals.
type GraphDB interface {
	SelectArticleEntities(ctx context.Context, articleID uuid.UUID) ([]*model.ArticleEntity, error)
	SelectMentionsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Mention, error)
}

// TraversalResult is an article reached from the source article.
// One hop is article -> entity -> article.
type TraversalResult struct {
	ArticleID  uuid.UUID
	ExternalID string
	Distance   int
	Path       []uuid.UUID // article ids from source to this article
}

// BFS performs breadth-first search over shared entities from a source article.
func BFS(ctx context.Context, db GraphDB, source *model.Article, maxHops int) ([]*TraversalResult, error) {
	visited := map[uuid.UUID]bool{source.ID: true}
	queue := []TraversalResult{{
		ArticleID:  source.ID,
		ExternalID: source.ExternalID,
		Distance:   0,
		Path:       []uuid.UUID{source.ID},
	}}

	var results []*TraversalResult
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, &current)

		if current.Distance >= maxHops {
			continue
		}

		mentions, err := mentionsAround(ctx, db, current.ArticleID)
		if err != nil {
			return nil, err
		}

		for _, m := range mentions {
			if visited[m.ArticleID] {
				continue
			}
			visited[m.ArticleID] = true

			path := make([]uuid.UUID, len(current.Path), len(current.Path)+1)
			copy(path, current.Path)
			path = append(path, m.ArticleID)

			queue = append(queue, TraversalResult{
				ArticleID:  m.ArticleID,
				ExternalID: m.ArticleExternalID,
				Distance:   current.Distance + 1,
				Path:       path,
			})
		}
	}

	return results, nil
}

// mentionsAround returns the mentions of every entity of an article,
// including the article's own mentions.
func mentionsAround(ctx context.Context, db GraphDB, articleID uuid.UUID) ([]*model.Mention, error) {
	entities, err := db.SelectArticleEntities(ctx, articleID)
	if err != nil {
		return nil, err
	}

	var mentions []*model.Mention
	for _, e := range entities {
		m, err := db.SelectMentionsOfEntity(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		mentions = append(mentions, m...)
	}
	return mentions, nil
}

// RelatedArticles ranks the articles sharing at least one entity with source.
// The weight of a candidate is the sum over shared entities of the smaller of
// both mention counts. Ties are broken by the number of shared entities, then
// by external id.
func RelatedArticles(ctx context.Context, db GraphDB, source *model.Article, limit int) ([]*model.RelatedArticle, error) {
	if limit <= 0 {
		return []*model.RelatedArticle{}, nil
	}

	entities, err := db.SelectArticleEntities(ctx, source.ID)
	if err != nil {
		return nil, err
	}

	related := map[uuid.UUID]*model.RelatedArticle{}
	for _, e := range entities {
		mentions, err := db.SelectMentionsOfEntity(ctx, e.ID)
		if err != nil {
			return nil, err
		}

		for _, m := range mentions {
			if m.ArticleID == source.ID {
				continue
			}
			r, ok := related[m.ArticleID]
			if !ok {
				r = &model.RelatedArticle{ExternalID: m.ArticleExternalID}
				related[m.ArticleID] = r
			}
			r.Weight += min(e.MentionCount, m.Count)
			r.SharedEntities++
		}
	}

	ranked := make([]*model.RelatedArticle, 0, len(related))
	for _, r := range related {
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		if ranked[i].SharedEntities != ranked[j].SharedEntities {
			return ranked[i].SharedEntities > ranked[j].SharedEntities
		}
		return ranked[i].ExternalID < ranked[j].ExternalID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
