package extraction

import (
	"strings"

	"github.com/siherrmann/newsgraph/model"
)

// EntitySet holds the entities of one document keyed by lowercase name,
// remembering insertion order.
type EntitySet struct {
	byKey map[string]*model.ExtractedEntity
	order []string
}

// NewEntitySet returns an empty entity set.
func NewEntitySet() *EntitySet {
	return &EntitySet{byKey: map[string]*model.ExtractedEntity{}}
}

// Add records one mention. A new name creates an entity with count 1,
// a known name increments the count and adds the sentence position.
func (s *EntitySet) Add(name string, entityType model.EntityType, sentence int) *model.ExtractedEntity {
	name = strings.Join(strings.Fields(name), " ")
	key := strings.ToLower(name)
	if key == "" {
		return nil
	}

	if e, ok := s.byKey[key]; ok {
		e.MentionCount++
		e.AddPosition(sentence)
		return e
	}

	e := &model.ExtractedEntity{
		Name:         name,
		Type:         entityType,
		MentionCount: 1,
		Positions:    []int{sentence},
	}
	s.byKey[key] = e
	s.order = append(s.order, key)
	return e
}

// Get returns the entity with the given name, case-insensitive.
func (s *EntitySet) Get(name string) (*model.ExtractedEntity, bool) {
	e, ok := s.byKey[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// Len returns the number of distinct entities.
func (s *EntitySet) Len() int {
	return len(s.order)
}

// List returns the entities in order of first appearance.
func (s *EntitySet) List() []*model.ExtractedEntity {
	list := make([]*model.ExtractedEntity, 0, len(s.order))
	for _, k := range s.order {
		list = append(list, s.byKey[k])
	}
	return list
}

// Map returns the entities keyed by lowercase name.
func (s *EntitySet) Map() map[string]*model.ExtractedEntity {
	m := make(map[string]*model.ExtractedEntity, len(s.byKey))
	for k, e := range s.byKey {
		m[k] = e
	}
	return m
}

// ConsolidateEntities merges contiguous runs of the same NER tag into
// multi-word entities and counts their mentions.
func ConsolidateEntities(doc *model.Document) *EntitySet {
	set := NewEntitySet()
	if doc == nil {
		return set
	}

	for _, sentence := range doc.Sentences {
		var words []string
		runLabel := ""

		flush := func() {
			if len(words) > 0 {
				set.Add(strings.Join(words, " "), MapEntityType(runLabel), sentence.Index)
			}
			words = nil
			runLabel = ""
		}

		for _, token := range sentence.Tokens {
			if !token.HasEntityTag() {
				flush()
				continue
			}

			label := stripBIO(token.NER)
			if label != runLabel || strings.HasPrefix(token.NER, "B-") {
				flush()
				runLabel = label
			}
			words = append(words, token.Text)
		}
		flush()
	}

	return set
}

// EnrichWithConcepts adds Concept entities for open relation subjects and
// objects the tagger missed. Known names are left untouched.
func EnrichWithConcepts(doc *model.Document, set *EntitySet) {
	if doc == nil {
		return
	}

	for _, sentence := range doc.Sentences {
		for _, triple := range sentence.Triples {
			for _, phrase := range []string{triple.Subject, triple.Object} {
				phrase = strings.Join(strings.Fields(phrase), " ")
				if !isConcept(phrase) {
					continue
				}
				if _, ok := set.Get(phrase); ok {
					continue
				}
				set.Add(phrase, model.EntityTypeConcept, sentence.Index)
			}
		}
	}
}

func isConcept(phrase string) bool {
	return len([]rune(phrase)) > 2 &&
		!IsNumeric(strings.ReplaceAll(phrase, " ", "")) &&
		!IsPronoun(phrase) &&
		!IsStopword(phrase)
}

// MapEntityType maps NER labels of rule-based taggers (PERSON, CITY, ...) and
// of token classification models (B-PER, I-ORG, ...) to entity types.
func MapEntityType(tag string) model.EntityType {
	switch strings.ToUpper(stripBIO(tag)) {
	case "PERSON", "PER":
		return model.EntityTypePerson
	case "LOCATION", "LOC", "CITY", "COUNTRY", "STATE_OR_PROVINCE", "GPE":
		return model.EntityTypeLocation
	case "ORGANIZATION", "ORG":
		return model.EntityTypeOrganization
	case "DATE", "TIME":
		return model.EntityTypeTime
	case "MONEY", "PERCENT", "NUMBER":
		return model.EntityTypeNumerical
	case "MISC":
		return model.EntityTypeMiscellaneous
	default:
		return model.EntityTypeOther
	}
}

func stripBIO(tag string) string {
	for _, prefix := range []string{"B-", "I-", "E-", "S-"} {
		if strings.HasPrefix(tag, prefix) {
			return tag[len(prefix):]
		}
	}
	return tag
}
