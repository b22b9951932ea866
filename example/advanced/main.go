package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/newsgraph"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
)

const sampleArticle1 = `Emmanuel Macron visited Berlin on Monday. Olaf Scholz welcomed Emmanuel Macron at the Chancellery.

The European Commission praised the meeting in Brussels.`

const sampleArticle2 = `Olaf Scholz traveled to Paris. Emmanuel Macron and Olaf Scholz discussed the budget of the European Commission.`

const sampleArticle3 = `Apple opened a new store in Tokyo.`

// Annotates raw text with the hugot NER pipeline, stores the articles and
// walks the graph. The first run downloads the NER model.
func main() {
	ctx := context.Background()

	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	n, err := newsgraph.NewNewsGraph(dbConfig)
	if err != nil {
		log.Fatalf("Failed to create newsgraph: %v", err)
	}
	defer n.Close()

	if err := n.UseDefaultAnnotator(); err != nil {
		log.Fatalf("Failed to set up annotator: %v", err)
	}

	articles := []*model.Article{
		{ExternalID: "eu-1", Title: "Macron in Berlin", Text: sampleArticle1, Metadata: model.Metadata{"section": "politics"}},
		{ExternalID: "eu-2", Title: "Scholz in Paris", Text: sampleArticle2, Metadata: model.Metadata{"section": "politics"}},
		{ExternalID: "tech-1", Title: "Apple in Tokyo", Text: sampleArticle3, Metadata: model.Metadata{"section": "tech"}},
	}

	fmt.Println("=== Ingesting Articles ===")
	for _, a := range articles {
		report, err := n.AnnotateAndPersist(ctx, a)
		if err != nil {
			log.Fatalf("Failed to ingest %s: %v", a.ExternalID, err)
		}
		fmt.Printf("%s '%s' (ID: %s): %d entities, %d mentions\n",
			a.ExternalID, a.Title, a.ID, report.Entities, report.Written(model.EdgeKindMention))
	}

	// Re-ingesting an article merges into the existing nodes and edges
	fmt.Println("\n=== Re-Ingesting eu-1 ===")
	if _, err := n.AnnotateAndPersist(ctx, articles[0]); err != nil {
		log.Fatalf("Failed to re-ingest: %v", err)
	}

	fmt.Println("\n=== Article Graph ===")
	graph, err := n.GetArticleGraph(ctx, "eu-1")
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	for _, e := range graph.Entities {
		fmt.Printf("  %-25s %-14s x%d\n", e.Name, e.Type, e.MentionCount)
	}

	fmt.Println("\n=== Related Articles ===")
	related, err := n.GetRelatedArticles(ctx, "eu-1", 5)
	if err != nil {
		log.Fatalf("Failed to find related articles: %v", err)
	}
	for _, r := range related {
		fmt.Printf("  %s (weight %d, %d shared entities)\n", r.ExternalID, r.Weight, r.SharedEntities)
	}

	fmt.Println("\n=== Neighborhood (BFS) ===")
	reached, err := n.Query.Neighborhood(ctx, "eu-1", 2)
	if err != nil {
		log.Fatalf("BFS traversal failed: %v", err)
	}
	for _, tr := range reached {
		fmt.Printf("  - Distance %d: %s (path length: %d)\n", tr.Distance, tr.ExternalID, len(tr.Path))
	}

	fmt.Println("\n=== Statistics ===")
	stats, err := n.Statistics(ctx)
	if err != nil {
		log.Fatalf("Failed to load statistics: %v", err)
	}
	fmt.Printf("  Articles: %d, entities: %d, relations: %d\n", stats.ArticleCount, stats.EntityCount, stats.RelationCount)
	for t, c := range stats.EntitiesByType {
		fmt.Printf("  %s: %d\n", t, c)
	}

	fmt.Println("\n=== Advanced Example Completed Successfully! ===")
}
