package extraction

import (
	"testing"

	"github.com/siherrmann/newsgraph/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRelationType(t *testing.T) {
	cases := []struct {
		phrase   string
		expected string
	}{
		{"is located in", "IS_LOCATED_IN"},
		{"  founded   ", "FOUNDED"},
		{"works\tfor", "WORKS_FOR"},
		{"works_for", "WORKS_FOR"},
		{"co-founded", "CO_FOUNDED"},
		{"está ubicado en", "ESTA_UBICADO_EN"},
		{"acquired (2022)", "ACQUIRED_2022"},
		{"said ,", "SAID"},
	}
	for _, c := range cases {
		t.Run(c.phrase, func(t *testing.T) {
			normalized, err := NormalizeRelationType(c.phrase)
			require.NoError(t, err)
			assert.Equal(t, c.expected, normalized)
		})
	}

	t.Run("Phrases without letters are malformed", func(t *testing.T) {
		for _, phrase := range []string{"", "   ", "!!!", "—"} {
			_, err := NormalizeRelationType(phrase)
			assert.ErrorIs(t, err, helper.ErrMalformedRelationType, "Expected %q to be malformed", phrase)
		}
	})
}
