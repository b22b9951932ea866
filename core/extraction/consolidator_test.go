package extraction

import (
	"strings"
	"testing"

	"github.com/siherrmann/newsgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestConsolidateEntities(t *testing.T) {
	t.Run("Contiguous tags merge into one entity", func(t *testing.T) {
		set := ConsolidateEntities(elonMuskDocument())

		require.Equal(t, 2, set.Len(), "Expected Elon Musk and SpaceX")
		musk, ok := set.Get("elon musk")
		require.True(t, ok)
		assert.Equal(t, "Elon Musk", musk.Name)
		assert.Equal(t, model.EntityTypePerson, musk.Type)
		assert.Equal(t, 1, musk.MentionCount)
	})

	t.Run("Mentions across sentences count once per occurrence", func(t *testing.T) {
		doc := &model.Document{Sentences: []model.Sentence{
			sentence(0, "Madrid/LOCATION is big and madrid/LOCATION is old ."),
			sentence(1, "MADRID/LOCATION hosts the final ."),
		}}

		set := ConsolidateEntities(doc)

		madrid, ok := set.Get("Madrid")
		require.True(t, ok)
		assert.Equal(t, 3, madrid.MentionCount, "Expected three mentions")
		assert.ElementsMatch(t, []int{0, 1}, madrid.Positions, "Expected two distinct sentence positions")
		assert.Equal(t, "Madrid", madrid.Name, "Expected casing of the first occurrence")
	})

	t.Run("Different adjacent tags are separate entities", func(t *testing.T) {
		doc := &model.Document{Sentences: []model.Sentence{
			sentence(0, "Google/ORGANIZATION Paris/LOCATION office"),
		}}

		set := ConsolidateEntities(doc)

		assert.Equal(t, 2, set.Len())
		paris, _ := set.Get("paris")
		require.NotNil(t, paris)
		assert.Equal(t, model.EntityTypeLocation, paris.Type)
	})

	t.Run("BIO labels from token classification", func(t *testing.T) {
		doc := &model.Document{Sentences: []model.Sentence{
			sentence(0, "Angela/B-PER Merkel/I-PER met Olaf/B-PER Scholz/I-PER in Berlin/B-LOC"),
		}}

		set := ConsolidateEntities(doc)

		names := []string{}
		for _, e := range set.List() {
			names = append(names, e.Name)
		}
		assert.Equal(t, []string{"Angela Merkel", "Olaf Scholz", "Berlin"}, names)
	})

	t.Run("Empty input yields empty set", func(t *testing.T) {
		assert.Equal(t, 0, ConsolidateEntities(nil).Len())
		assert.Equal(t, 0, ConsolidateEntities(&model.Document{}).Len())
		assert.Empty(t, ConsolidateEntities(&model.Document{}).Map())
	})

	t.Run("O tags are ignored", func(t *testing.T) {
		doc := &model.Document{Sentences: []model.Sentence{sentence(0, "nothing/O here/O")}}
		assert.Equal(t, 0, ConsolidateEntities(doc).Len())
	})
}

func TestEnrichWithConcepts(t *testing.T) {
	s := sentence(0, "Musk/PERSON praised electric cars .")
	s.Triples = []model.OpenTriple{
		{Subject: "Musk", Relation: "praised", Object: "electric cars"},
		{Subject: "He", Relation: "said", Object: "2024"},
		{Subject: "the", Relation: "is", Object: "EV"},
	}
	doc := &model.Document{Sentences: []model.Sentence{s}}

	set := ConsolidateEntities(doc)
	EnrichWithConcepts(doc, set)

	concept, ok := set.Get("electric cars")
	require.True(t, ok, "Expected a Concept for the object phrase")
	assert.Equal(t, model.EntityTypeConcept, concept.Type)

	musk, _ := set.Get("musk")
	assert.Equal(t, 1, musk.MentionCount, "Expected known entities to be left untouched")
	assert.Equal(t, model.EntityTypePerson, musk.Type)

	for _, rejected := range []string{"he", "2024", "the", "ev"} {
		_, ok := set.Get(rejected)
		assert.False(t, ok, "Expected %q not to become a Concept", rejected)
	}
}

func TestMapEntityType(t *testing.T) {
	cases := map[string]model.EntityType{
		"PERSON":            model.EntityTypePerson,
		"B-PER":             model.EntityTypePerson,
		"CITY":              model.EntityTypeLocation,
		"STATE_OR_PROVINCE": model.EntityTypeLocation,
		"I-LOC":             model.EntityTypeLocation,
		"ORGANIZATION":      model.EntityTypeOrganization,
		"B-ORG":             model.EntityTypeOrganization,
		"DATE":              model.EntityTypeTime,
		"MONEY":             model.EntityTypeNumerical,
		"PERCENT":           model.EntityTypeNumerical,
		"MISC":              model.EntityTypeMiscellaneous,
		"B-MISC":            model.EntityTypeMiscellaneous,
		"TITLE":             model.EntityTypeOther,
	}
	for tag, expected := range cases {
		assert.Equal(t, expected, MapEntityType(tag), "Unexpected type for tag %s", tag)
	}
}

func TestProperty_ConsolidationDedup(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := []string{"Paris", "PARIS", "paris", "Lyon", "lyon"}
		sentences := rapid.IntRange(1, 5).Draw(t, "sentences")

		doc := &model.Document{}
		expected := map[string]int{}
		for i := 0; i < sentences; i++ {
			picks := rapid.SliceOfN(rapid.SampledFrom(names), 0, 6).Draw(t, "names")
			words := []string{}
			for _, n := range picks {
				words = append(words, n+"/LOCATION", "and")
				expected[strings.ToLower(n)]++
			}
			doc.Sentences = append(doc.Sentences, sentence(i, strings.Join(words, " ")))
		}

		set := ConsolidateEntities(doc)

		if set.Len() != len(expected) {
			t.Fatalf("expected %d entities, got %d", len(expected), set.Len())
		}
		for key, count := range expected {
			e, ok := set.Get(key)
			if !ok || e.MentionCount != count {
				t.Fatalf("entity %s: expected count %d, got %+v", key, count, e)
			}
			seen := map[int]bool{}
			for _, p := range e.Positions {
				if seen[p] {
					t.Fatalf("duplicate position %d for %s", p, key)
				}
				seen[p] = true
			}
		}
	})
}
