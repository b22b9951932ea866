package extraction

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/siherrmann/newsgraph/helper"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeRelationType turns a relation phrase into an identifier made of
// [A-Z0-9_], e.g. "is located in" becomes IS_LOCATED_IN. Diacritics are
// folded and hyphens separate words like spaces.
func NormalizeRelationType(phrase string) (string, error) {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), phrase)
	if err != nil {
		folded = phrase
	}

	folded = strings.ReplaceAll(folded, "-", " ")
	folded = strings.ToUpper(strings.Join(strings.Fields(folded), " "))

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == ' ' || r == '_':
			b.WriteRune('_')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}

	normalized := strings.Trim(b.String(), "_")
	for strings.Contains(normalized, "__") {
		normalized = strings.ReplaceAll(normalized, "__", "_")
	}

	if normalized == "" {
		return "", helper.NewError("normalize relation type", fmt.Errorf("%w: %q", helper.ErrMalformedRelationType, phrase))
	}
	return normalized, nil
}
