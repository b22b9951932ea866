package extraction

import (
	"sort"
	"strings"

	"github.com/siherrmann/newsgraph/model"
)

const (
	ConfidenceOpenTriple  = 0.95
	ConfidenceDirectObj   = 0.90
	ConfidencePreposition = 0.85
	ConfidencePassive     = 0.85
	ConfidenceApposition  = 0.85
	ConfidencePossessive  = 0.80
	ConfidenceCompound    = 0.70

	RelationDescribedAs = "IS_DESCRIBED_AS"
	RelationHasProperty = "HAS_PROPERTY"
	RelationIncludes    = "INCLUDES"
)

// relationExtractor derives triples of one document. Endpoints are always
// rewritten to the entity names they matched.
type relationExtractor struct {
	matcher   *EntityMatcher
	pronouns  PronounTable
	acc       *RelationshipAccumulator
	malformed int
}

// ExtractRelationships runs the open triple and dependency strategies over
// all sentences and returns the pooled, deduplicated triples.
func ExtractRelationships(doc *model.Document, entities *EntitySet, pronouns PronounTable) *RelationshipAccumulator {
	x := &relationExtractor{
		matcher:  NewEntityMatcher(entities),
		pronouns: pronouns,
		acc:      NewRelationshipAccumulator(),
	}
	if doc == nil {
		return x.acc
	}

	for i := range doc.Sentences {
		sentence := &doc.Sentences[i]
		x.openTriples(sentence)
		x.dependencyTriples(sentence)
	}
	return x.acc
}

func (x *relationExtractor) add(source string, phrase string, target string, confidence float64, sentence int) {
	relationType, err := NormalizeRelationType(phrase)
	if err != nil {
		x.malformed++
		return
	}
	x.acc.add(source, relationType, phrase, target, confidence, sentence)
}

func (x *relationExtractor) openTriples(sentence *model.Sentence) {
	for _, triple := range sentence.Triples {
		subject, ok := x.resolvePhrase(sentence, triple.Subject, triple.SubjectStart)
		if !ok {
			continue
		}
		object, ok := x.resolvePhrase(sentence, triple.Object, triple.ObjectStart)
		if !ok {
			continue
		}

		source, ok := x.matcher.MatchPhrase(subject)
		if !ok {
			continue
		}
		target, ok := x.matcher.MatchPhrase(object)
		if !ok {
			continue
		}
		x.add(source, triple.Relation, target, ConfidenceOpenTriple, sentence.Index)
	}
}

// resolvePhrase rewrites a pronoun phrase to its antecedent. The pronoun token
// is searched from the span hint onwards, then in the whole sentence.
func (x *relationExtractor) resolvePhrase(sentence *model.Sentence, phrase string, hint int) (string, bool) {
	phrase = strings.TrimSpace(phrase)
	if !IsPronoun(phrase) {
		return phrase, phrase != ""
	}

	start := hint
	if start < 0 || start >= len(sentence.Tokens) {
		start = 0
	}
	for _, from := range []int{start, 0} {
		for i := from; i < len(sentence.Tokens); i++ {
			if !strings.EqualFold(sentence.Tokens[i].Text, phrase) {
				continue
			}
			if name, ok := x.pronouns.Resolve(sentence.Index, i); ok {
				return name, true
			}
		}
	}
	return "", false
}

// dependencyGraph indexes the outgoing edges of each governor.
type dependencyGraph struct {
	sentence *model.Sentence
	children map[int][]model.Dependency
}

func newDependencyGraph(sentence *model.Sentence) *dependencyGraph {
	g := &dependencyGraph{sentence: sentence, children: map[int][]model.Dependency{}}
	for _, d := range sentence.Dependencies {
		g.children[d.Governor] = append(g.children[d.Governor], d)
	}
	return g
}

func (g *dependencyGraph) text(i int) string {
	t, ok := g.sentence.Token(i)
	if !ok {
		return ""
	}
	return t.Text
}

// expand returns the full span of a token, walking compound, adjective and
// flat name modifiers.
func (g *dependencyGraph) expand(i int) string {
	indices := []int{i}
	visited := map[int]bool{i: true}
	for queue := []int{i}; len(queue) > 0; queue = queue[1:] {
		for _, d := range g.children[queue[0]] {
			if visited[d.Dependent] || !isSpanRelation(d.Relation) {
				continue
			}
			visited[d.Dependent] = true
			indices = append(indices, d.Dependent)
			queue = append(queue, d.Dependent)
		}
	}
	sort.Ints(indices)

	words := make([]string, 0, len(indices))
	for _, idx := range indices {
		if w := g.text(idx); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

func isSpanRelation(relation string) bool {
	switch relation {
	case "compound", "amod", "flat", "flat:name", "name":
		return true
	}
	return false
}

// endpoint resolves a token to an entity name. Pronouns are replaced by their
// antecedent before the substantive check, other tokens are expanded to their span.
func (x *relationExtractor) endpoint(g *dependencyGraph, i int) (string, bool) {
	word := g.text(i)
	if IsPronoun(word) {
		name, ok := x.pronouns.Resolve(g.sentence.Index, i)
		if !ok {
			return "", false
		}
		return x.matcher.MatchPhrase(name)
	}
	if !IsSubstantive(word) {
		return "", false
	}
	return x.matcher.MatchSpan(g.expand(i), word)
}

func (x *relationExtractor) dependencyTriples(sentence *model.Sentence) {
	g := newDependencyGraph(sentence)
	index := sentence.Index

	for _, d := range sentence.Dependencies {
		switch {
		case d.Relation == "nsubj":
			x.activeVoice(g, d.Governor, d.Dependent)
		case d.Relation == "nsubjpass" || d.Relation == "nsubj:pass":
			x.passiveVoice(g, d.Governor, d.Dependent)
		case d.Relation == "appos":
			source, ok1 := x.endpoint(g, d.Governor)
			target, ok2 := x.endpoint(g, d.Dependent)
			if ok1 && ok2 {
				x.add(source, RelationDescribedAs, target, ConfidenceApposition, index)
			}
		case d.Relation == "poss" || d.Relation == "nmod:poss" || d.Relation == "nmod:de":
			source, ok1 := x.endpoint(g, d.Dependent)
			target, ok2 := x.endpoint(g, d.Governor)
			if ok1 && ok2 {
				x.add(source, RelationHasProperty, target, ConfidencePossessive, index)
			}
		case d.Relation == "compound":
			x.compound(g, d.Governor, d.Dependent)
		}
	}
}

func (x *relationExtractor) activeVoice(g *dependencyGraph, verb int, subject int) {
	source, ok := x.endpoint(g, subject)
	if !ok {
		return
	}
	verbText := g.text(verb)
	if verbText == "" {
		return
	}

	for _, child := range g.children[verb] {
		switch {
		case child.Relation == "obj" || child.Relation == "dobj" || child.Relation == "iobj":
			if target, ok := x.endpoint(g, child.Dependent); ok {
				x.add(source, verbText, target, ConfidenceDirectObj, g.sentence.Index)
			}
		case isPrepositional(child.Relation):
			prep := x.preposition(g, child)
			if prep == "" {
				continue
			}
			if target, ok := x.endpoint(g, child.Dependent); ok {
				x.add(source, verbText+" "+prep, target, ConfidencePreposition, g.sentence.Index)
			}
		}
	}
}

func (x *relationExtractor) passiveVoice(g *dependencyGraph, verb int, patient int) {
	target, ok := x.endpoint(g, patient)
	if !ok {
		return
	}
	verbText := g.text(verb)
	if verbText == "" {
		return
	}

	for _, child := range g.children[verb] {
		if !isAgent(child.Relation) {
			continue
		}
		if source, ok := x.endpoint(g, child.Dependent); ok {
			x.add(source, verbText, target, ConfidencePassive, g.sentence.Index)
		}
	}
}

// compound emits INCLUDES from the two-word compound to each of its parts.
func (x *relationExtractor) compound(g *dependencyGraph, head int, modifier int) {
	headText, modifierText := g.text(head), g.text(modifier)
	if !IsSubstantive(headText) || !IsSubstantive(modifierText) {
		return
	}

	whole, ok := x.matcher.MatchPhrase(modifierText + " " + headText)
	if !ok {
		return
	}
	for _, part := range []string{modifierText, headText} {
		if target, ok := x.matcher.MatchSpan(part, part); ok {
			x.add(whole, RelationIncludes, target, ConfidenceCompound, g.sentence.Index)
		}
	}
}

func isPrepositional(relation string) bool {
	if isAgent(relation) || relation == "nmod:poss" || relation == "nmod:de" || relation == "obl:tmod" || relation == "nmod:tmod" {
		return false
	}
	return relation == "obl" || relation == "nmod" ||
		strings.HasPrefix(relation, "obl:") || strings.HasPrefix(relation, "nmod:")
}

func isAgent(relation string) bool {
	switch relation {
	case "agent", "obl:agent", "obl:by", "nmod:agent":
		return true
	}
	return false
}

// preposition returns the preposition of an oblique edge, taken from the
// relation suffix or from a case marker on the modifier.
func (x *relationExtractor) preposition(g *dependencyGraph, edge model.Dependency) string {
	if i := strings.Index(edge.Relation, ":"); i >= 0 {
		return edge.Relation[i+1:]
	}
	for _, c := range g.children[edge.Dependent] {
		if c.Relation == "case" {
			return g.text(c.Dependent)
		}
	}
	return ""
}
