package model

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/siherrmann/newsgraph/helper"
)

// NoEntityTag is the NER tag of tokens outside any entity.
const NoEntityTag = "O"

// Document is an annotated text as produced by an annotation pipeline.
// Token indices are 0-based within their sentence and join all per-sentence outputs.
type Document struct {
	Sentences    []Sentence   `json:"sentences"`
	Coreferences []CorefChain `json:"coreferences,omitempty"`
}

// Sentence holds the tokens and the syntactic and open-IE annotations of one sentence.
type Sentence struct {
	Index        int          `json:"index"`
	Tokens       []Token      `json:"tokens"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	Triples      []OpenTriple `json:"triples,omitempty"`
	NounPhrases  []string     `json:"noun_phrases,omitempty"`
}

// Token is one word of a sentence with its NER tag ("" or "O" for none).
type Token struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Lemma string `json:"lemma,omitempty"`
	NER   string `json:"ner,omitempty"`
}

// HasEntityTag reports whether the token carries a named entity tag.
func (t Token) HasEntityTag() bool {
	return t.NER != "" && t.NER != NoEntityTag
}

// Dependency is a typed edge of the dependency parse. Governor is -1 for the root.
type Dependency struct {
	Relation  string `json:"relation"`
	Governor  int    `json:"governor"`
	Dependent int    `json:"dependent"`
}

// OpenTriple is an open relation (subject, relation phrase, object) with approximate
// token offsets of subject and object in the sentence, -1 when unknown.
type OpenTriple struct {
	Subject      string `json:"subject"`
	Relation     string `json:"relation"`
	Object       string `json:"object"`
	SubjectStart int    `json:"subject_start"`
	ObjectStart  int    `json:"object_start"`
}

// CorefChain groups the mentions referring to the same thing.
type CorefChain struct {
	Representative CorefMention   `json:"representative"`
	Mentions       []CorefMention `json:"mentions"`
}

// CorefMention is a reference inside a coreference chain.
type CorefMention struct {
	Text          string `json:"text"`
	SentenceIndex int    `json:"sentence_index"`
	TokenIndex    int    `json:"token_index"`
}

// Token returns the token at index i or false if out of range.
func (s *Sentence) Token(i int) (Token, bool) {
	if i < 0 || i >= len(s.Tokens) {
		return Token{}, false
	}
	return s.Tokens[i], true
}

// Text joins the token texts of the sentence.
func (s *Sentence) Text() string {
	words := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		words[i] = t.Text
	}
	return strings.Join(words, " ")
}

// LoadDocument decodes an annotated document from JSON and rebases sentence
// and token indices to 0-based slice positions.
//
// Declared indices that are distinct within their scope are taken as the
// identifiers used by dependencies, triples and coreference mentions, and those
// references are rewritten to the new positions. References to an index that
// does not exist become -1. Indices that are absent or repeated are replaced by
// the slice position and references are kept as they are.
func LoadDocument(r io.Reader) (*Document, error) {
	doc := &Document{}
	err := json.NewDecoder(r).Decode(doc)
	if err != nil {
		return nil, helper.NewError("decode document", err)
	}

	sentences := positions(len(doc.Sentences), func(i int) int { return doc.Sentences[i].Index })
	tokens := map[int]map[int]int{}

	for i := range doc.Sentences {
		sentence := &doc.Sentences[i]
		sentence.Index = i

		byIndex := positions(len(sentence.Tokens), func(j int) int { return sentence.Tokens[j].Index })
		for j := range sentence.Tokens {
			sentence.Tokens[j].Index = j
		}
		tokens[i] = byIndex
		if byIndex == nil {
			continue
		}

		for k := range sentence.Dependencies {
			d := &sentence.Dependencies[k]
			if d.Governor >= 0 {
				d.Governor = rebase(byIndex, d.Governor)
			}
			d.Dependent = rebase(byIndex, d.Dependent)
		}
		for k := range sentence.Triples {
			t := &sentence.Triples[k]
			if t.SubjectStart >= 0 {
				t.SubjectStart = rebase(byIndex, t.SubjectStart)
			}
			if t.ObjectStart >= 0 {
				t.ObjectStart = rebase(byIndex, t.ObjectStart)
			}
		}
	}

	for c := range doc.Coreferences {
		chain := &doc.Coreferences[c]
		rebaseMention(&chain.Representative, sentences, tokens)
		for m := range chain.Mentions {
			rebaseMention(&chain.Mentions[m], sentences, tokens)
		}
	}

	return doc, nil
}

// positions maps declared indices to slice positions. It returns nil when the
// declared indices are not distinct or already equal the positions.
func positions(n int, index func(i int) int) map[int]int {
	byIndex := make(map[int]int, n)
	shifted := false
	for i := 0; i < n; i++ {
		declared := index(i)
		if _, dup := byIndex[declared]; dup {
			return nil
		}
		byIndex[declared] = i
		if declared != i {
			shifted = true
		}
	}
	if !shifted {
		return nil
	}
	return byIndex
}

func rebase(byIndex map[int]int, declared int) int {
	if position, ok := byIndex[declared]; ok {
		return position
	}
	return -1
}

func rebaseMention(mention *CorefMention, sentences map[int]int, tokens map[int]map[int]int) {
	if sentences != nil {
		mention.SentenceIndex = rebase(sentences, mention.SentenceIndex)
	}
	if byIndex := tokens[mention.SentenceIndex]; byIndex != nil {
		mention.TokenIndex = rebase(byIndex, mention.TokenIndex)
	}
}
