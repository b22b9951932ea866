package sql

import (
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		assert.True(t, queryExists(t, db.Instance, "SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'pg_trgm');"), "pg_trgm extension should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		assert.NoError(t, Init(db.Instance))
		assert.NoError(t, Init(db.Instance))
	})
}

func TestLoadSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	loaders := []struct {
		name      string
		load      func(force bool) error
		functions []string
	}{
		{"articles", func(force bool) error { return LoadArticlesSql(db.Instance, force) }, ArticlesFunctions},
		{"entities", func(force bool) error { return LoadEntitiesSql(db.Instance, force) }, EntitiesFunctions},
		{"mentions", func(force bool) error { return LoadMentionsSql(db.Instance, force) }, MentionsFunctions},
		{"relations", func(force bool) error { return LoadRelationsSql(db.Instance, force) }, RelationsFunctions},
	}

	for _, l := range loaders {
		t.Run("Load "+l.name+" SQL functions", func(t *testing.T) {
			err := l.load(false)
			assert.NoError(t, err)

			for _, funcName := range l.functions {
				assert.True(t, functionExists(t, db.Instance, funcName), "Function %s should exist", funcName)
			}
		})

		t.Run("Load "+l.name+" SQL is idempotent without force", func(t *testing.T) {
			assert.NoError(t, l.load(false))
		})

		t.Run("Load "+l.name+" SQL with force reloads", func(t *testing.T) {
			assert.NoError(t, l.load(true))
		})
	}
}

func TestLoadAllSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Load all SQL functions", func(t *testing.T) {
		err := LoadAllSql(db.Instance, false)
		assert.NoError(t, err)

		all := [][]string{ArticlesFunctions, EntitiesFunctions, MentionsFunctions, RelationsFunctions}
		for _, functions := range all {
			exists, err := checkFunctions(db.Instance, functions)
			require.NoError(t, err)
			assert.True(t, exists, "Expected functions %v to exist", functions)
		}
	})

	t.Run("Load all SQL with force reloads", func(t *testing.T) {
		assert.NoError(t, LoadAllSql(db.Instance, true))
	})

	t.Run("Init functions create the graph tables", func(t *testing.T) {
		for _, fn := range []string{"init_articles", "init_entities", "init_mentions", "init_relations"} {
			_, err := db.Instance.Exec("SELECT " + fn + "();")
			require.NoError(t, err, "Expected %s to succeed", fn)
		}

		for _, table := range []string{"articles", "entities", "mentions", "relations"} {
			assert.True(t, tableExists(t, db.Instance, table), "Table %s should exist", table)
		}
		assert.True(t, indexExists(t, db.Instance, "idx_entities_name_trgm"), "Expected the trigram index on entity names")
	})

	t.Run("Entity search ranks by trigram similarity", func(t *testing.T) {
		for _, name := range []string{"SpaceX Starbase", "SpaceX", "Blue Origin"} {
			_, err := db.Instance.Exec("SELECT * FROM find_or_create_entity(gen_random_uuid(), $1, 'Organization', '{}'::jsonb);", name)
			require.NoError(t, err, "Expected find_or_create_entity to succeed for %s", name)
		}

		rows, err := db.Instance.Query("SELECT output_name FROM select_entities_by_search('spacex', NULL, 10);")
		require.NoError(t, err)
		defer rows.Close()

		names := []string{}
		for rows.Next() {
			var name string
			require.NoError(t, rows.Scan(&name))
			names = append(names, name)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, []string{"SpaceX", "SpaceX Starbase"}, names, "Expected the exact name first and no unrelated names")
	})
}

func TestCheckFunctions(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Check functions returns false when functions don't exist", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{"nonexistent_function"})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false for nonexistent function")
	})

	t.Run("Check functions returns true when all functions exist", func(t *testing.T) {
		require.NoError(t, LoadArticlesSql(db.Instance, false))

		exists, err := checkFunctions(db.Instance, ArticlesFunctions)
		assert.NoError(t, err)
		assert.True(t, exists)
	})
}
