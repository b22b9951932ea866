package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
)

func loadDocument(path string) *model.Document {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	doc, err := model.LoadDocument(f)
	if err != nil {
		log.Fatalf("Failed to decode %s: %v", path, err)
	}
	return doc
}

// Run from the repository root: go run ./example/basic
func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container
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

	articles := []struct {
		article *model.Article
		path    string
	}{
		{&model.Article{ExternalID: "news-1", Title: "SpaceX", Text: "Elon Musk founded SpaceX. He leads the company."}, "testdata/elon_musk.json"},
		{&model.Article{ExternalID: "news-2", Title: "Austin", Text: "Elon Musk lives in Austin. Tesla is based in Austin."}, "testdata/tesla.json"},
	}

	for _, a := range articles {
		report, err := n.ProcessAndPersist(ctx, a.article, loadDocument(a.path))
		if err != nil {
			log.Fatalf("Failed to persist %s: %v", a.article.ExternalID, err)
		}
		fmt.Printf("Persisted %s: %d entities, %d relations, %d failed edges\n",
			a.article.ExternalID, report.Entities, report.Written(model.EdgeKindRelation), len(report.Failed()))
	}

	graph, err := n.GetArticleGraph(ctx, "news-1")
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	fmt.Printf("\nGraph of %s\n", graph.Article.Title)
	names := map[uuid.UUID]string{}
	for _, e := range graph.Entities {
		names[e.ID] = e.Name
		fmt.Printf("  %s (%s) x%d\n", e.Name, e.Type, e.MentionCount)
	}
	for _, r := range graph.Relationships {
		fmt.Printf("  %s -[%s %.2f]-> %s\n", names[r.SourceEntityID], r.RelationType, r.Confidence, names[r.TargetEntityID])
	}

	related, err := n.GetRelatedArticleIDs(ctx, "news-1", 5)
	if err != nil {
		log.Fatalf("Failed to find related articles: %v", err)
	}
	fmt.Printf("\nRelated to news-1: %v\n", related)

	fmt.Println("\nBasic example completed successfully!")
}
