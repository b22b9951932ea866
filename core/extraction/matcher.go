package extraction

import (
	"strings"
	"unicode/utf8"
)

// EntityMatcher resolves phrases to entity names of one document.
// Lookup is exact first, a linear containment scan runs only on a miss.
type EntityMatcher struct {
	entities *EntitySet
}

// NewEntityMatcher creates a matcher over the entities of one document.
func NewEntityMatcher(entities *EntitySet) *EntityMatcher {
	return &EntityMatcher{entities: entities}
}

// MatchPhrase matches a free phrase exactly or by substring containment.
func (m *EntityMatcher) MatchPhrase(phrase string) (string, bool) {
	if name, ok := m.exact(phrase); ok {
		return name, true
	}
	return m.containment(phrase)
}

// MatchSpan matches an expanded multi-word span, falling back to its single
// head word and then to substring containment of the span.
func (m *EntityMatcher) MatchSpan(span string, head string) (string, bool) {
	if name, ok := m.exact(span); ok {
		return name, true
	}
	if name, ok := m.exact(head); ok {
		return name, true
	}
	return m.containment(span)
}

func (m *EntityMatcher) exact(phrase string) (string, bool) {
	e, ok := m.entities.Get(phrase)
	if !ok {
		return "", false
	}
	return e.Name, true
}

// containment returns the first entity, in order of appearance, whose name
// contains the phrase or is contained in it.
func (m *EntityMatcher) containment(phrase string) (string, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(phrase), " "))
	if utf8.RuneCountInString(key) < 2 {
		return "", false
	}

	for _, e := range m.entities.List() {
		name := e.Key()
		if utf8.RuneCountInString(name) < 2 {
			continue
		}
		if strings.Contains(name, key) || strings.Contains(key, name) {
			return e.Name, true
		}
	}
	return "", false
}
