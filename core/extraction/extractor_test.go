package extraction

import (
	"context"
	"testing"

	"github.com/siherrmann/newsgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorProcess(t *testing.T) {
	extractor := NewExtractor(model.DefaultProcessConfig(), nil)
	article := &model.Article{ExternalID: "news-1", Title: "SpaceX", Text: "Elon Musk founded SpaceX. He leads the company."}

	t.Run("Pronoun resolution with pair filter", func(t *testing.T) {
		result := extractor.Process(article, elonMuskDocument())

		assert.Equal(t, "SpaceX", result.Title)
		require.Len(t, result.Entities, 2)
		assert.Equal(t, "Elon Musk", result.Entities[0].Name, "Expected entities in order of appearance")

		require.Len(t, result.Relationships, 1, "Expected one relationship per entity pair")
		r := result.Relationships[0]
		assert.Equal(t, "Elon Musk", r.SourceEntity)
		assert.Equal(t, "SpaceX", r.TargetEntity)
		assert.Equal(t, "FOUNDED", r.Type, "Expected the earlier triple to win the confidence tie")

		assert.Equal(t, []string{"Elon Musk", "the company"}, result.KeyPhrases)
	})

	t.Run("Disabled options", func(t *testing.T) {
		plain := NewExtractor(model.ProcessConfig{}, nil)

		doc := elonMuskDocument()
		doc.Sentences[0].Triples = append(doc.Sentences[0].Triples, model.OpenTriple{Subject: "Elon Musk", Relation: "likes", Object: "reusable rockets"})
		result := plain.Process(article, doc)

		assert.Nil(t, result.KeyPhrases)
		assert.Nil(t, result.Entity("reusable rockets"), "Expected no Concept entities")

		enriched := extractor.Process(article, doc)
		assert.NotNil(t, enriched.Entity("reusable rockets"))
	})

	t.Run("Missing annotations yield empty result", func(t *testing.T) {
		result := extractor.Process(nil, nil)

		assert.NotNil(t, result.Entities)
		assert.Empty(t, result.Entities)
		assert.Empty(t, result.Relationships)
	})

	t.Run("Process is deterministic", func(t *testing.T) {
		first := extractor.Process(article, elonMuskDocument())
		second := extractor.Process(article, elonMuskDocument())

		assert.Equal(t, first, second)
	})
}

func TestExtractorProcessBatch(t *testing.T) {
	extractor := NewExtractor(model.DefaultProcessConfig(), nil)

	t.Run("Results keep input order", func(t *testing.T) {
		inputs := []Input{}
		for i := 0; i < 8; i++ {
			doc := elonMuskDocument()
			if i%2 == 1 {
				doc = &model.Document{Sentences: []model.Sentence{sentence(0, "Madrid/LOCATION")}}
			}
			inputs = append(inputs, Input{Article: &model.Article{Title: "article"}, Document: doc})
		}

		results, err := extractor.ProcessBatch(context.Background(), inputs, 3)

		require.NoError(t, err)
		require.Len(t, results, 8)
		for i, r := range results {
			if i%2 == 1 {
				assert.Len(t, r.Entities, 1)
			} else {
				assert.Len(t, r.Entities, 2)
			}
		}
	})

	t.Run("Cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := extractor.ProcessBatch(ctx, []Input{{Document: elonMuskDocument()}}, 0)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
