package extraction

import (
	"strings"

	"github.com/siherrmann/newsgraph/model"
)

// TokenPosition addresses a token by sentence and token index.
type TokenPosition struct {
	Sentence int
	Token    int
}

// PronounTable maps pronoun positions to the name of their antecedent.
type PronounTable map[TokenPosition]string

// BuildPronounTable records every pronoun mention of chains whose
// representative is not a pronoun itself.
func BuildPronounTable(chains []model.CorefChain) PronounTable {
	table := PronounTable{}
	for _, chain := range chains {
		representative := strings.TrimSpace(chain.Representative.Text)
		if representative == "" || IsPronoun(representative) {
			continue
		}

		for _, mention := range chain.Mentions {
			if !IsPronoun(mention.Text) {
				continue
			}
			table[TokenPosition{Sentence: mention.SentenceIndex, Token: mention.TokenIndex}] = representative
		}
	}
	return table
}

// Resolve returns the antecedent of the pronoun at the given position.
func (t PronounTable) Resolve(sentence int, token int) (string, bool) {
	name, ok := t[TokenPosition{Sentence: sentence, Token: token}]
	return name, ok
}
