package extraction

import (
	"strings"

	"github.com/siherrmann/newsgraph/model"
)

// ExtractKeyPhrases returns the distinct multi-word noun phrases of the
// document in order of first appearance.
func ExtractKeyPhrases(doc *model.Document) []string {
	if doc == nil {
		return nil
	}

	seen := map[string]struct{}{}
	phrases := []string{}
	for _, sentence := range doc.Sentences {
		for _, np := range sentence.NounPhrases {
			words := strings.Fields(np)
			if len(words) < 2 {
				continue
			}
			phrase := strings.Join(words, " ")
			if _, ok := seen[phrase]; ok {
				continue
			}
			seen[phrase] = struct{}{}
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}
