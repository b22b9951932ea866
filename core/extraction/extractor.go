package extraction

import (
	"context"
	"log/slog"

	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	"golang.org/x/sync/errgroup"
)

// Input pairs an article with its annotated text.
type Input struct {
	Article  *model.Article
	Document *model.Document
}

// Extractor turns annotated articles into entities and relationships.
// It holds no per-document state and may be shared between goroutines.
type Extractor struct {
	config model.ProcessConfig
	log    *slog.Logger
}

// NewExtractor creates an extractor, logging to slog.Default if logger is nil.
func NewExtractor(config model.ProcessConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{config: config, log: logger}
}

// Process extracts the knowledge graph of one article. It never fails,
// malformed input yields empty entity and relationship sets.
func (e *Extractor) Process(article *model.Article, doc *model.Document) *model.ExtractionResult {
	result := &model.ExtractionResult{
		Entities:      []*model.ExtractedEntity{},
		Relationships: []*model.ExtractedRelationship{},
	}
	if article != nil {
		result.Title = article.Title
		result.Text = article.Text
	}
	if doc == nil {
		return result
	}

	entities := ConsolidateEntities(doc)
	if e.config.EnableConcepts {
		EnrichWithConcepts(doc, entities)
	}

	pronouns := BuildPronounTable(doc.Coreferences)
	acc := ExtractRelationships(doc, entities, pronouns)

	result.Entities = entities.List()
	result.Relationships = FilterBestPerPair(acc.Relationships())
	if e.config.EnableKeyPhrases {
		result.KeyPhrases = ExtractKeyPhrases(doc)
	}

	e.log.Debug(
		"Extracted article graph",
		slog.String("title", result.Title),
		slog.Int("entities", len(result.Entities)),
		slog.Int("pronouns", len(pronouns)),
		slog.Int("raw_relationships", len(acc.Relationships())),
		slog.Int("rejected_relationships", acc.Rejected()),
		slog.Int("relationships", len(result.Relationships)),
	)

	return result
}

// ProcessBatch extracts several articles concurrently, at most limit at a time.
// Results keep the order of inputs.
func (e *Extractor) ProcessBatch(ctx context.Context, inputs []Input, limit int) ([]*model.ExtractionResult, error) {
	if limit <= 0 {
		limit = 1
	}

	results := make([]*model.ExtractionResult, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, input := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.Process(input.Article, input.Document)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, helper.NewError("process batch", err)
	}
	return results, nil
}
