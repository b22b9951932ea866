package graph

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
)

type mentionKey struct {
	entityID  uuid.UUID
	articleID uuid.UUID
}

// MockStore is an in-memory Store with the merge semantics of the real stores.
// Writes are applied immediately, Rollback does not undo them.
type MockStore struct {
	mu        sync.Mutex
	articles  map[string]*model.Article
	entities  map[string]*model.Entity
	mentions  map[mentionKey]int
	relations map[string]*model.Relation

	beginErr    error
	commitErr   error
	relationErr func(r *model.Relation) error
	commits     int
	rollbacks   int
}

var _ Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{
		articles:  map[string]*model.Article{},
		entities:  map[string]*model.Entity{},
		mentions:  map[mentionKey]int{},
		relations: map[string]*model.Relation{},
	}
}

func (m *MockStore) Begin(ctx context.Context) (Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &mockTx{store: m}, nil
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.beginErr
}

func (m *MockStore) SelectArticleByExternalID(ctx context.Context, externalID string) (*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[externalID]
	if !ok {
		return nil, helper.NewError("select article", helper.ErrNotFound)
	}
	article := *a
	return &article, nil
}

func (m *MockStore) SelectArticle(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.articles {
		if a.ID == id {
			article := *a
			return &article, nil
		}
	}
	return nil, helper.NewError("select article", helper.ErrNotFound)
}

func (m *MockStore) SelectArticles(ctx context.Context, limit int) ([]*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*model.Article
	for _, a := range m.articles {
		article := *a
		result = append(result, &article)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ExternalID < result[j].ExternalID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockStore) SelectArticleEntities(ctx context.Context, articleID uuid.UUID) ([]*model.ArticleEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*model.ArticleEntity
	for key, count := range m.mentions {
		if key.articleID != articleID {
			continue
		}
		for _, e := range m.entities {
			if e.ID == key.entityID {
				result = append(result, &model.ArticleEntity{Entity: *e, MentionCount: count})
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].MentionCount != result[j].MentionCount {
			return result[i].MentionCount > result[j].MentionCount
		}
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

func (m *MockStore) SelectRelationsAmong(ctx context.Context, entityIDs []uuid.UUID) ([]*model.Relation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := map[uuid.UUID]bool{}
	for _, id := range entityIDs {
		ids[id] = true
	}

	var result []*model.Relation
	for _, r := range m.relations {
		if ids[r.SourceEntityID] && ids[r.TargetEntityID] {
			relation := *r
			result = append(result, &relation)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key() < result[j].Key() })
	return result, nil
}

func (m *MockStore) SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entities {
		if e.ID == id {
			entity := *e
			return &entity, nil
		}
	}
	return nil, helper.NewError("select entity", helper.ErrNotFound)
}

func (m *MockStore) SelectEntityByName(ctx context.Context, name string, entityType model.EntityType) (*model.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entities[strings.ToLower(strings.TrimSpace(name))+"|"+string(entityType)]
	if !ok {
		return nil, helper.NewError("select entity by name", helper.ErrNotFound)
	}
	entity := *e
	return &entity, nil
}

func (m *MockStore) SearchEntities(ctx context.Context, term string, entityType *model.EntityType, limit int) ([]*model.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	term = strings.ToLower(term)
	var result []*model.Entity
	for _, e := range m.entities {
		if !strings.Contains(strings.ToLower(e.Name), term) {
			continue
		}
		if entityType != nil && e.Type != *entityType {
			continue
		}
		entity := *e
		result = append(result, &entity)
	}
	sort.Slice(result, func(i, j int) bool {
		if len(result[i].Name) != len(result[j].Name) {
			return len(result[i].Name) < len(result[j].Name)
		}
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockStore) SelectRelationsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Relation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*model.Relation
	for _, r := range m.relations {
		if r.SourceEntityID == entityID || r.TargetEntityID == entityID {
			relation := *r
			result = append(result, &relation)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Confidence != result[j].Confidence {
			return result[i].Confidence > result[j].Confidence
		}
		return result[i].Key() < result[j].Key()
	})
	return result, nil
}

func (m *MockStore) SelectMentionsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Mention, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*model.Mention
	for key, count := range m.mentions {
		if key.entityID != entityID {
			continue
		}
		mention := &model.Mention{EntityID: key.entityID, ArticleID: key.articleID, Count: count}
		for _, a := range m.articles {
			if a.ID == key.articleID {
				mention.ArticleExternalID = a.ExternalID
			}
		}
		result = append(result, mention)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ArticleExternalID < result[j].ArticleExternalID })
	return result, nil
}

func (m *MockStore) SelectStatistics(ctx context.Context, topRelationTypes int) (*model.GraphStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &model.GraphStatistics{
		ArticleCount:   len(m.articles),
		EntityCount:    len(m.entities),
		EntitiesByType: map[model.EntityType]int{},
		RelationCount:  len(m.relations),
	}
	for _, e := range m.entities {
		stats.EntitiesByType[e.Type]++
	}

	counts := map[string]int{}
	for _, r := range m.relations {
		counts[r.RelationType]++
	}
	for t, c := range counts {
		stats.TopRelationTypes = append(stats.TopRelationTypes, model.RelationTypeCount{RelationType: t, Count: c})
	}
	sort.Slice(stats.TopRelationTypes, func(i, j int) bool {
		if stats.TopRelationTypes[i].Count != stats.TopRelationTypes[j].Count {
			return stats.TopRelationTypes[i].Count > stats.TopRelationTypes[j].Count
		}
		return stats.TopRelationTypes[i].RelationType < stats.TopRelationTypes[j].RelationType
	})
	if len(stats.TopRelationTypes) > topRelationTypes {
		stats.TopRelationTypes = stats.TopRelationTypes[:topRelationTypes]
	}
	return stats, nil
}

func (m *MockStore) Close() error {
	return nil
}

type mockTx struct {
	store *MockStore
}

func (t *mockTx) UpsertArticle(ctx context.Context, article *model.Article) error {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.articles[article.ExternalID]; ok {
		article.ID = existing.ID
		article.CreatedAt = existing.CreatedAt
	} else {
		article.CreatedAt = time.Now()
	}
	article.UpdatedAt = time.Now()

	stored := *article
	m.articles[article.ExternalID] = &stored
	return nil
}

func (t *mockTx) FindOrCreateEntity(ctx context.Context, name string, entityType model.EntityType) (*model.Entity, error) {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(name)) + "|" + string(entityType)
	e, ok := m.entities[key]
	if !ok {
		e = &model.Entity{ID: uuid.New(), Name: strings.TrimSpace(name), Type: entityType, CreatedAt: time.Now()}
		m.entities[key] = e
	}
	entity := *e
	return &entity, nil
}

func (t *mockTx) MergeMention(ctx context.Context, entityID uuid.UUID, articleID uuid.UUID, count int) error {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if count < 1 {
		return errors.New("count must be positive")
	}
	m.mentions[mentionKey{entityID: entityID, articleID: articleID}] = count
	return nil
}

func (t *mockTx) MergeRelation(ctx context.Context, relation *model.Relation) error {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.relationErr != nil {
		if err := m.relationErr(relation); err != nil {
			return err
		}
	}

	if existing, ok := m.relations[relation.Key()]; ok {
		existing.Confidence = relation.Confidence
		existing.OriginalType = relation.OriginalType
		existing.UpdatedAt = time.Now()
		return nil
	}
	stored := *relation
	stored.CreatedAt = time.Now()
	m.relations[relation.Key()] = &stored
	return nil
}

func (t *mockTx) DeleteArticle(ctx context.Context, externalID string) (int, error) {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[externalID]
	if !ok {
		return 0, nil
	}
	for key := range m.mentions {
		if key.articleID == a.ID {
			delete(m.mentions, key)
		}
	}
	delete(m.articles, externalID)
	return 1, nil
}

func (t *mockTx) Commit(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.commits++
	return nil
}

func (t *mockTx) Rollback(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	t.store.rollbacks++
	return nil
}
