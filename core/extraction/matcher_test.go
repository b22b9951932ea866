package extraction

import (
	"testing"

	"github.com/siherrmann/newsgraph/model"
	"github.com/stretchr/testify/assert"
)

func TestEntityMatcher(t *testing.T) {
	set := NewEntitySet()
	set.Add("Elon Musk", model.EntityTypePerson, 0)
	set.Add("SpaceX", model.EntityTypeOrganization, 0)
	set.Add("New York", model.EntityTypeLocation, 1)
	matcher := NewEntityMatcher(set)

	t.Run("Exact match is case-insensitive", func(t *testing.T) {
		name, ok := matcher.MatchPhrase("spacex")
		assert.True(t, ok)
		assert.Equal(t, "SpaceX", name)
	})

	t.Run("Containment in both directions", func(t *testing.T) {
		name, ok := matcher.MatchPhrase("Musk")
		assert.True(t, ok, "Expected phrase contained in a name to match")
		assert.Equal(t, "Elon Musk", name)

		name, ok = matcher.MatchPhrase("the city of New York")
		assert.True(t, ok, "Expected name contained in a phrase to match")
		assert.Equal(t, "New York", name)
	})

	t.Run("Span falls back to single head word", func(t *testing.T) {
		name, ok := matcher.MatchSpan("reusable SpaceX", "SpaceX")
		assert.True(t, ok)
		assert.Equal(t, "SpaceX", name)
	})

	t.Run("Unmatched phrases", func(t *testing.T) {
		_, ok := matcher.MatchPhrase("Tesla")
		assert.False(t, ok)
		_, ok = matcher.MatchPhrase("e")
		assert.False(t, ok, "Expected single characters never to match by containment")
	})
}
