package newsgraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/newsgraph/core/annotate"
	"github.com/siherrmann/newsgraph/core/extraction"
	"github.com/siherrmann/newsgraph/core/graph"
	"github.com/siherrmann/newsgraph/database"
	"github.com/siherrmann/newsgraph/database/neo4jstore"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
)

// NewsGraph extracts knowledge graphs from news articles and keeps them in a graph store.
type NewsGraph struct {
	Store     graph.Store
	Extractor *extraction.Extractor
	Upserter  *graph.Upserter
	Query     *graph.QueryService
	Annotator annotate.Annotator // Optional, needed for raw text input
	// Configuration
	config model.ProcessConfig
	// Logging
	log *slog.Logger
}

func newLogger(level slog.Level) *slog.Logger {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: level,
		},
	}
	return slog.New(helper.NewPrettyHandler(os.Stdout, opts))
}

// NewNewsGraph creates a NewsGraph on the Postgres store, creating tables and
// functions if they do not exist.
func NewNewsGraph(config *helper.DatabaseConfiguration) (*NewsGraph, error) {
	logger := newLogger(slog.LevelInfo)

	db := helper.NewDatabase("newsgraph", config, logger)
	store, err := database.NewGraphStore(db, false)
	if err != nil {
		return nil, helper.NewError("create graph store", err)
	}

	return NewWithStore(store, model.DefaultProcessConfig(), logger), nil
}

// NewNeo4jNewsGraph creates a NewsGraph on the Neo4j store and ensures its constraints.
func NewNeo4jNewsGraph(ctx context.Context, config *helper.Neo4jConfiguration) (*NewsGraph, error) {
	logger := newLogger(slog.LevelInfo)

	store, err := neo4jstore.NewStore(ctx, config, logger)
	if err != nil {
		return nil, helper.NewError("create neo4j store", err)
	}
	err = store.EnsureConstraints(ctx)
	if err != nil {
		_ = store.Close()
		return nil, helper.NewError("ensure constraints", err)
	}

	return NewWithStore(store, model.DefaultProcessConfig(), logger), nil
}

// NewWithStore wires the services around an existing store.
func NewWithStore(store graph.Store, config model.ProcessConfig, logger *slog.Logger) *NewsGraph {
	if logger == nil {
		logger = newLogger(slog.LevelInfo)
	}

	return &NewsGraph{
		Store:     store,
		Extractor: extraction.NewExtractor(config, logger),
		Upserter:  graph.NewUpserter(store, logger),
		Query:     graph.NewQueryService(store, logger),
		config:    config,
		log:       logger,
	}
}

// Close closes the annotator and the store.
func (n *NewsGraph) Close() error {
	if n.Annotator != nil {
		if err := n.Annotator.Close(); err != nil {
			n.log.Warn("Closing annotator failed", slog.String("error", err.Error()))
		}
	}
	if n.Store != nil {
		return n.Store.Close()
	}
	return nil
}

// SetAnnotator sets the annotator used for raw article text.
func (n *NewsGraph) SetAnnotator(annotator annotate.Annotator) {
	n.Annotator = annotator
}

// UseDefaultAnnotator sets up the hugot NER annotator with the default model.
func (n *NewsGraph) UseDefaultAnnotator() error {
	annotator, err := annotate.NewHugotAnnotator(annotate.DefaultNERModel)
	if err != nil {
		return helper.NewError("create default annotator", err)
	}

	n.Annotator = annotator
	return nil
}

// Process extracts the knowledge graph of an annotated article without storing it.
func (n *NewsGraph) Process(article *model.Article, doc *model.Document) *model.ExtractionResult {
	return n.Extractor.Process(article, doc)
}

// Persist stores an extraction result for the article.
func (n *NewsGraph) Persist(ctx context.Context, result *model.ExtractionResult, article *model.Article) (*model.PersistReport, error) {
	return n.Upserter.Persist(ctx, result, article)
}

// ProcessAndPersist extracts and stores the knowledge graph of an annotated article.
func (n *NewsGraph) ProcessAndPersist(ctx context.Context, article *model.Article, doc *model.Document) (*model.PersistReport, error) {
	result := n.Extractor.Process(article, doc)

	report, err := n.Upserter.Persist(ctx, result, article)
	if err != nil {
		return nil, helper.NewError("persist", err)
	}
	return report, nil
}

// AnnotateAndPersist annotates the article text with the annotator, then
// extracts and stores its knowledge graph.
func (n *NewsGraph) AnnotateAndPersist(ctx context.Context, article *model.Article) (*model.PersistReport, error) {
	if n.Annotator == nil {
		return nil, helper.NewError("annotate article", fmt.Errorf("annotator not set, use SetAnnotator() first"))
	}
	if article.Text == "" {
		return nil, helper.NewError("annotate article", fmt.Errorf("article text is empty"))
	}

	doc, err := n.Annotator.Annotate(ctx, article.Text)
	if err != nil {
		return nil, helper.NewError("annotate article", err)
	}

	n.log.Debug("Annotated article", slog.String("article", article.ExternalID), slog.Int("sentences", len(doc.Sentences)))

	return n.ProcessAndPersist(ctx, article, doc)
}

// ProcessAndPersistBatch extracts all inputs concurrently and stores them
// article by article, at most config.BatchLimit at a time.
func (n *NewsGraph) ProcessAndPersistBatch(ctx context.Context, inputs []extraction.Input) ([]*model.PersistReport, error) {
	results, err := n.Extractor.ProcessBatch(ctx, inputs, n.config.BatchLimit)
	if err != nil {
		return nil, helper.NewError("process batch", err)
	}

	items := make([]graph.PersistItem, len(inputs))
	for i, input := range inputs {
		items[i] = graph.PersistItem{Article: input.Article, Result: results[i]}
	}

	reports, err := n.Upserter.PersistBatch(ctx, items, n.config.BatchLimit)
	if err != nil {
		return nil, helper.NewError("persist batch", err)
	}
	return reports, nil
}

// GetArticleGraph returns the stored subgraph of an article.
func (n *NewsGraph) GetArticleGraph(ctx context.Context, externalID string) (*model.ArticleGraph, error) {
	return n.Query.GetArticleGraph(ctx, externalID)
}

// GetRelatedArticleIDs returns the external ids of up to limit articles
// sharing entities with the given one.
func (n *NewsGraph) GetRelatedArticleIDs(ctx context.Context, externalID string, limit int) ([]string, error) {
	return n.Query.GetRelatedArticleIDs(ctx, externalID, limit)
}

// GetRelatedArticles is GetRelatedArticleIDs with weights.
func (n *NewsGraph) GetRelatedArticles(ctx context.Context, externalID string, limit int) ([]*model.RelatedArticle, error) {
	return n.Query.GetRelatedArticles(ctx, externalID, limit)
}

// Statistics summarizes the stored graph.
func (n *NewsGraph) Statistics(ctx context.Context) (*model.GraphStatistics, error) {
	return n.Query.Statistics(ctx)
}

// DeleteArticle removes a stored article and its mention edges.
func (n *NewsGraph) DeleteArticle(ctx context.Context, externalID string) error {
	return n.Upserter.Delete(ctx, externalID)
}

// ListArticles returns up to limit stored articles, newest first.
func (n *NewsGraph) ListArticles(ctx context.Context, limit int) ([]*model.Article, error) {
	return n.Query.ListArticles(ctx, limit)
}

// SearchEntities finds entities by name substring, optionally of one type.
func (n *NewsGraph) SearchEntities(ctx context.Context, term string, entityType *model.EntityType, limit int) ([]*model.Entity, error) {
	return n.Query.SearchEntities(ctx, term, entityType, limit)
}

// GetEntityGraph returns the relations, neighbours and mentioning articles of an entity.
func (n *NewsGraph) GetEntityGraph(ctx context.Context, name string, entityType model.EntityType) (*model.EntityGraph, error) {
	return n.Query.GetEntityGraph(ctx, name, entityType)
}
