package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/siherrmann/newsgraph/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with fresh flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	for _, cmd := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestIngestCommand(t *testing.T) {
	t.Run("Dry run prints the extraction result", func(t *testing.T) {
		out, err := execute(t, "ingest", "--id", "news-1", "--title", "SpaceX", "--dry-run", "../../testdata/elon_musk.json")
		require.NoError(t, err, "Expected no error on dry run")

		result := &model.ExtractionResult{}
		err = json.Unmarshal([]byte(out), result)
		require.NoError(t, err, "Expected JSON output")
		assert.Equal(t, "SpaceX", result.Title, "Expected title from flag")
		require.Len(t, result.Relationships, 1, "Expected one relationship")
		assert.Equal(t, "FOUNDED", result.Relationships[0].Type, "Expected FOUNDED relationship")
		assert.NotNil(t, result.Entity("Elon Musk"), "Expected Elon Musk entity")
	})

	t.Run("Missing id", func(t *testing.T) {
		_, err := execute(t, "ingest", "--dry-run", "../../testdata/elon_musk.json")
		assert.Error(t, err, "Expected error without --id")
	})

	t.Run("Missing document", func(t *testing.T) {
		_, err := execute(t, "ingest", "--id", "news-1", "--dry-run", "does-not-exist.json")
		assert.Error(t, err, "Expected error for missing document")
	})

	t.Run("No document argument", func(t *testing.T) {
		_, err := execute(t, "ingest", "--id", "news-1")
		assert.Error(t, err, "Expected error without argument")
	})
}

func TestEntityCommands(t *testing.T) {
	t.Run("Unknown entity type is rejected before connecting", func(t *testing.T) {
		_, err := execute(t, "--store", "sqlite", "entities", "--type", "company")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown entity type", "Expected entity type error")
	})

	t.Run("Valid entity type reaches the store", func(t *testing.T) {
		_, err := execute(t, "--store", "sqlite", "entities", "--search", "space", "--type", "organization")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown store", "Expected the store to be opened")
	})

	t.Run("Entity requires a type", func(t *testing.T) {
		_, err := execute(t, "entity", "Paris")
		assert.Error(t, err, "Expected error without --type")
	})

	t.Run("Entity requires a name", func(t *testing.T) {
		_, err := execute(t, "entity", "--type", "location")
		assert.Error(t, err, "Expected error without argument")
	})
}

func TestUnknownStore(t *testing.T) {
	_, err := execute(t, "--store", "sqlite", "stats")
	require.Error(t, err, "Expected error for unknown store")
	assert.Contains(t, err.Error(), "unknown store", "Expected unknown store error")
}

func TestCommandsRegistered(t *testing.T) {
	names := []string{}
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"ingest", "annotate", "delete", "graph", "related", "neighborhood", "articles", "entities", "entity", "stats"}, "Expected all commands")
}
