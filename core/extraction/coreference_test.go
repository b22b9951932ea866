package extraction

import (
	"testing"

	"github.com/siherrmann/newsgraph/model"
	"github.com/stretchr/testify/assert"
)

func TestBuildPronounTable(t *testing.T) {
	t.Run("Pronoun mentions map to the representative", func(t *testing.T) {
		table := BuildPronounTable(elonMuskDocument().Coreferences)

		name, ok := table.Resolve(1, 0)
		assert.True(t, ok)
		assert.Equal(t, "Elon Musk", name)

		_, ok = table.Resolve(0, 1)
		assert.False(t, ok, "Expected non-pronoun mentions to be skipped")
	})

	t.Run("Chains with a pronoun representative are skipped", func(t *testing.T) {
		table := BuildPronounTable([]model.CorefChain{{
			Representative: model.CorefMention{Text: "She", SentenceIndex: 0, TokenIndex: 0},
			Mentions:       []model.CorefMention{{Text: "her", SentenceIndex: 1, TokenIndex: 2}},
		}})

		assert.Empty(t, table)
	})

	t.Run("Spanish pronouns", func(t *testing.T) {
		table := BuildPronounTable([]model.CorefChain{{
			Representative: model.CorefMention{Text: "Pedro Sánchez"},
			Mentions:       []model.CorefMention{{Text: "Él", SentenceIndex: 2, TokenIndex: 0}},
		}})

		name, ok := table.Resolve(2, 0)
		assert.True(t, ok)
		assert.Equal(t, "Pedro Sánchez", name)
	})
}

func TestWords(t *testing.T) {
	assert.True(t, IsPronoun("He"))
	assert.True(t, IsPronoun(" ellos "))
	assert.False(t, IsPronoun("Musk"))

	assert.True(t, IsSubstantive("SpaceX"))
	assert.False(t, IsSubstantive("del"), "Expected Spanish stopword to be rejected")
	assert.False(t, IsSubstantive("the"))
	assert.False(t, IsSubstantive("x"), "Expected single characters to be rejected")
	assert.False(t, IsSubstantive("2024"), "Expected numbers to be rejected")

	assert.True(t, IsNumeric("42"))
	assert.False(t, IsNumeric(""))
	assert.False(t, IsNumeric("4a"))
}
