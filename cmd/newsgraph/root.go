package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/siherrmann/newsgraph"
	"github.com/siherrmann/newsgraph/database"
	"github.com/siherrmann/newsgraph/database/neo4jstore"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	"github.com/spf13/cobra"
)

const (
	storePostgres = "postgres"
	storeNeo4j    = "neo4j"
)

var (
	storeKind string
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "newsgraph",
	Short: "Build a knowledge graph from news articles",
	Long: `newsgraph extracts entities and relationships from annotated news articles
and keeps them in a graph store (PostgreSQL or Neo4j).

The store connection is read from the environment (or a .env file):
  postgres: NEWSGRAPH_DB_* variables
  neo4j:    NEWSGRAPH_NEO4J_* variables`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	defaultStore := os.Getenv("NEWSGRAPH_STORE")
	if defaultStore == "" {
		defaultStore = storePostgres
	}

	rootCmd.PersistentFlags().StringVar(&storeKind, "store", defaultStore, "graph store (postgres, neo4j)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(helper.NewPrettyHandler(os.Stderr, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	}))
}

// openNewsGraph connects to the store selected by --store.
func openNewsGraph(ctx context.Context) (*newsgraph.NewsGraph, error) {
	logger := newLogger()

	switch storeKind {
	case storePostgres:
		config, err := helper.NewDatabaseConfiguration()
		if err != nil {
			return nil, err
		}
		store, err := database.NewGraphStore(helper.NewDatabase("newsgraph", config, logger), false)
		if err != nil {
			return nil, err
		}
		return newsgraph.NewWithStore(store, model.DefaultProcessConfig(), logger), nil
	case storeNeo4j:
		config, err := helper.NewNeo4jConfiguration()
		if err != nil {
			return nil, err
		}
		store, err := neo4jstore.NewStore(ctx, config, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureConstraints(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return newsgraph.NewWithStore(store, model.DefaultProcessConfig(), logger), nil
	default:
		return nil, fmt.Errorf("unknown store %q, use %s or %s", storeKind, storePostgres, storeNeo4j)
	}
}

// newDryRunNewsGraph extracts without a store.
func newDryRunNewsGraph() *newsgraph.NewsGraph {
	return newsgraph.NewWithStore(nil, model.DefaultProcessConfig(), newLogger())
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
