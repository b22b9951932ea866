package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/core/extraction"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	"golang.org/x/sync/errgroup"
)

// PersistItem is one article with its extraction result.
type PersistItem struct {
	Article *model.Article
	Result  *model.ExtractionResult
}

// Upserter writes extraction results into a Store with merge semantics.
type Upserter struct {
	store Store
	log   *slog.Logger
}

// NewUpserter creates an upserter on store, logging to slog.Default if logger is nil.
func NewUpserter(store Store, logger *slog.Logger) *Upserter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Upserter{store: store, log: logger}
}

// Persist writes the article, its entities, mention edges and relation edges
// in one transaction. The article ID is set to the stored internal id.
//
// Edge writes are best effort: a failing edge is recorded in the report and
// the remaining edges are still written. The returned error is only set when
// the transaction as a whole could not be run or committed.
func (u *Upserter) Persist(ctx context.Context, result *model.ExtractionResult, article *model.Article) (*model.PersistReport, error) {
	if article == nil || strings.TrimSpace(article.ExternalID) == "" {
		return nil, helper.NewError("persist", fmt.Errorf("article external id is required"))
	}
	if result == nil {
		result = &model.ExtractionResult{}
	}

	tx, err := u.store.Begin(ctx)
	if err != nil {
		return nil, helper.NewError("persist", unavailable(err))
	}

	report, err := u.write(ctx, tx, result, article)
	if err != nil {
		rollbackErr := tx.Rollback(ctx)
		if rollbackErr != nil {
			u.log.Error("Rollback failed", slog.String("article", article.ExternalID), slog.String("error", rollbackErr.Error()))
		}
		return nil, helper.NewError("persist", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, helper.NewError("persist", unavailable(err))
	}

	u.log.Info(
		"Persisted article graph",
		slog.String("article", article.ExternalID),
		slog.Int("entities", report.Entities),
		slog.Int("mentions", report.Written(model.EdgeKindMention)),
		slog.Int("relations", report.Written(model.EdgeKindRelation)),
		slog.Int("failed", len(report.Failed())),
	)

	return report, nil
}

func (u *Upserter) write(ctx context.Context, tx Tx, result *model.ExtractionResult, article *model.Article) (*model.PersistReport, error) {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	if article.Title == "" {
		article.Title = result.Title
	}
	if article.Text == "" {
		article.Text = result.Text
	}

	err := tx.UpsertArticle(ctx, article)
	if err != nil {
		return nil, helper.NewError("upsert article", err)
	}

	report := &model.PersistReport{Article: article}
	ids := newEntityIndex()

	for _, extracted := range result.Entities {
		entity, err := tx.FindOrCreateEntity(ctx, extracted.Name, extracted.Type)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("find or create entity %q", extracted.Name), err)
		}
		ids.add(extracted.Name, entity.ID)
		report.Entities++

		count := extracted.MentionCount
		if count < 1 {
			count = 1
		}
		err = tx.MergeMention(ctx, entity.ID, article.ID, count)
		if err != nil {
			u.log.Warn("Mention not written", slog.String("entity", extracted.Name), slog.String("error", err.Error()))
		}
		report.Outcomes = append(report.Outcomes, model.EdgeOutcome{
			Kind:   model.EdgeKindMention,
			Source: extracted.Name,
			Target: article.ExternalID,
			Err:    err,
		})
	}

	for _, rel := range result.Relationships {
		outcome := model.EdgeOutcome{
			Kind:   model.EdgeKindRelation,
			Source: rel.SourceEntity,
			Type:   rel.Type,
			Target: rel.TargetEntity,
		}
		outcome.Err = u.writeRelation(ctx, tx, ids, rel)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report, nil
}

func (u *Upserter) writeRelation(ctx context.Context, tx Tx, ids *entityIndex, rel *model.ExtractedRelationship) error {
	sourceID, ok := ids.resolve(rel.SourceEntity)
	if !ok {
		u.log.Warn("Relationship source not found", slog.String("source", rel.SourceEntity), slog.String("type", rel.Type))
		return helper.NewError("resolve source "+rel.SourceEntity, helper.ErrUnresolvedEntityReference)
	}
	targetID, ok := ids.resolve(rel.TargetEntity)
	if !ok {
		u.log.Warn("Relationship target not found", slog.String("target", rel.TargetEntity), slog.String("type", rel.Type))
		return helper.NewError("resolve target "+rel.TargetEntity, helper.ErrUnresolvedEntityReference)
	}

	relationType, err := extraction.NormalizeRelationType(rel.Type)
	if err != nil {
		u.log.Warn("Relationship type malformed", slog.String("type", rel.Type))
		return err
	}

	err = tx.MergeRelation(ctx, &model.Relation{
		ID:             uuid.New(),
		SourceEntityID: sourceID,
		TargetEntityID: targetID,
		RelationType:   relationType,
		OriginalType:   rel.Phrase(),
		Confidence:     rel.Confidence,
	})
	if err != nil {
		u.log.Warn(
			"Relation not written",
			slog.String("source", rel.SourceEntity),
			slog.String("type", relationType),
			slog.String("target", rel.TargetEntity),
			slog.String("error", err.Error()),
		)
	}
	return err
}

// PersistBatch persists several articles concurrently, at most limit at a time.
// Each article runs in its own transaction. Reports keep the order of items;
// the first failing article cancels the ones not started yet.
func (u *Upserter) PersistBatch(ctx context.Context, items []PersistItem, limit int) ([]*model.PersistReport, error) {
	if limit <= 0 {
		limit = 1
	}

	reports := make([]*model.PersistReport, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := u.Persist(ctx, item.Result, item.Article)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, helper.NewError("persist batch", err)
	}
	return reports, nil
}

// entityIndex maps the entity names of one document to their stored ids.
type entityIndex struct {
	exact map[string]uuid.UUID
	lower map[string]uuid.UUID
	order []string
}

func newEntityIndex() *entityIndex {
	return &entityIndex{exact: map[string]uuid.UUID{}, lower: map[string]uuid.UUID{}}
}

func (x *entityIndex) add(name string, id uuid.UUID) {
	x.exact[name] = id
	key := strings.ToLower(name)
	if _, ok := x.lower[key]; !ok {
		x.lower[key] = id
		x.order = append(x.order, key)
	}
}

// resolve looks the name up exactly, then case-insensitive, then by substring
// containment in either direction.
func (x *entityIndex) resolve(name string) (uuid.UUID, bool) {
	if id, ok := x.exact[name]; ok {
		return id, true
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return uuid.Nil, false
	}
	if id, ok := x.lower[key]; ok {
		return id, true
	}
	for _, candidate := range x.order {
		if strings.Contains(candidate, key) || strings.Contains(key, candidate) {
			return x.lower[candidate], true
		}
	}
	return uuid.Nil, false
}

// Delete removes an article and its mention edges. Entities and relations
// stay since other articles may share them.
// It returns helper.ErrNotFound if the article does not exist.
func (u *Upserter) Delete(ctx context.Context, externalID string) error {
	tx, err := u.store.Begin(ctx)
	if err != nil {
		return helper.NewError("delete", unavailable(err))
	}

	deleted, err := tx.DeleteArticle(ctx, externalID)
	if err == nil && deleted == 0 {
		err = fmt.Errorf("%w: article %s", helper.ErrNotFound, externalID)
	}
	if err != nil {
		rollbackErr := tx.Rollback(ctx)
		if rollbackErr != nil {
			u.log.Error("Rollback failed", slog.String("article", externalID), slog.String("error", rollbackErr.Error()))
		}
		return helper.NewError("delete", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return helper.NewError("delete", unavailable(err))
	}

	u.log.Info("Deleted article", slog.String("article", externalID))
	return nil
}

func unavailable(err error) error {
	if errors.Is(err, helper.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", helper.ErrStoreUnavailable, err)
}
