package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/siherrmann/newsgraph"
	"github.com/siherrmann/newsgraph/core/extraction"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startNeo4jContainer starts a Neo4j container. The data directory is mounted
// so the graph survives between runs.
func startNeo4jContainer(ctx context.Context) (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	dataDir := "./data"
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, "", fmt.Errorf("failed to create data directory: %w", err)
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get absolute path for data directory: %w", err)
	}
	fmt.Printf("Using persistent graph in: %s\n", absDataDir)

	req := testcontainers.ContainerRequest{
		Image:        "neo4j:5",
		ExposedPorts: []string{"7687/tcp"},
		Env: map[string]string{
			"NEO4J_AUTH": "neo4j/password",
		},
		WaitingFor: wait.ForLog("Started."),
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Mounts = append(hc.Mounts, mount.Mount{
				Type:   mount.TypeBind,
				Source: absDataDir,
				Target: "/data",
			})
		},
	}

	neo4jContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("error starting neo4j container: %w", err)
	}

	port, err := neo4jContainer.MappedPort(ctx, "7687/tcp")
	if err != nil {
		return nil, "", fmt.Errorf("error getting mapped port: %w", err)
	}

	return neo4jContainer.Terminate, port.Port(), nil
}

// Ingests every .txt file of a directory (default ./example/neo4j/articles)
// into Neo4j. Articles already stored are skipped.
func main() {
	ctx := context.Background()

	dir := "./example/neo4j/articles"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	teardown, port, err := startNeo4jContainer(ctx)
	if err != nil {
		log.Fatalf("Failed to start Neo4j container: %v", err)
	}
	defer teardown(ctx)

	n, err := newsgraph.NewNeo4jNewsGraph(ctx, &helper.Neo4jConfiguration{
		URI:      "bolt://localhost:" + port,
		Username: "neo4j",
		Password: "password",
		Database: "neo4j",
	})
	if err != nil {
		log.Fatalf("Failed to create newsgraph: %v", err)
	}
	defer n.Close()

	fmt.Println("Setting up NER annotator...")
	if err := n.UseDefaultAnnotator(); err != nil {
		log.Fatalf("Failed to set up annotator: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		log.Fatalf("Failed to list articles: %v", err)
	}

	inputs := []extraction.Input{}
	skipped := 0
	for i, path := range files {
		article, err := model.NewArticleFromFile(path, model.Metadata{"source": "example/neo4j"})
		if err != nil {
			log.Printf("Warning: %v, skipping...", err)
			continue
		}
		article.ExternalID = filepath.Base(path)

		exists, err := articleExists(ctx, n, article.ExternalID)
		if err != nil {
			log.Fatalf("Failed to check %s: %v", article.ExternalID, err)
		}
		if exists {
			fmt.Printf("Skipping %s (%d/%d) - already stored\n", article.ExternalID, i+1, len(files))
			skipped++
			continue
		}

		fmt.Printf("Annotating %s (%d/%d)...\n", article.ExternalID, i+1, len(files))
		doc, err := n.Annotator.Annotate(ctx, article.Text)
		if err != nil {
			log.Printf("Warning: failed to annotate %s: %v, skipping...", article.ExternalID, err)
			continue
		}
		inputs = append(inputs, extraction.Input{Article: article, Document: doc})
	}

	reports, err := n.ProcessAndPersistBatch(ctx, inputs)
	if err != nil {
		log.Fatalf("Failed to persist articles: %v", err)
	}

	fmt.Printf("\nArticle status:\n")
	for _, r := range reports {
		fmt.Printf("  - %s: %d entities, %d relations, %d failed edges\n",
			r.Article.ExternalID, r.Entities, r.Written(model.EdgeKindRelation), len(r.Failed()))
	}
	fmt.Printf("  - Skipped (already stored): %d\n", skipped)
	fmt.Printf("  - Total: %d\n\n", len(files))

	stats, err := n.Statistics(ctx)
	if err != nil {
		log.Fatalf("Failed to load statistics: %v", err)
	}
	fmt.Println(strings.Repeat("=", 20))
	fmt.Printf("Articles: %d, entities: %d, relations: %d\n", stats.ArticleCount, stats.EntityCount, stats.RelationCount)
	for _, t := range stats.TopRelationTypes {
		fmt.Printf("  %-20s %d\n", t.RelationType, t.Count)
	}

	for _, path := range files {
		id := filepath.Base(path)
		related, err := n.GetRelatedArticleIDs(ctx, id, 3)
		if err != nil {
			log.Printf("Related articles of %s: %v", id, err)
			continue
		}
		fmt.Printf("%s -> %v\n", id, related)
	}
}

func articleExists(ctx context.Context, n *newsgraph.NewsGraph, externalID string) (bool, error) {
	_, err := n.Store.SelectArticleByExternalID(ctx, externalID)
	if errors.Is(err, helper.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
