package extraction

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/siherrmann/newsgraph/model"
)

// RelationshipAccumulator collects the triples of one document and rejects
// exact duplicates of (source, type, target). It is not safe for concurrent use.
type RelationshipAccumulator struct {
	seen          map[string]map[string]struct{}
	relationships []*model.ExtractedRelationship
	rejected      int
}

// NewRelationshipAccumulator returns an empty accumulator for one document.
func NewRelationshipAccumulator() *RelationshipAccumulator {
	return &RelationshipAccumulator{seen: map[string]map[string]struct{}{}}
}

// Add appends the triple unless an endpoint is empty or shorter than two
// characters, both endpoints are equal, or the same triple was added before.
func (a *RelationshipAccumulator) Add(source string, relationType string, target string, confidence float64, sentence int) bool {
	return a.add(source, relationType, relationType, target, confidence, sentence)
}

// add is Add keeping the phrase the relation type was normalized from.
func (a *RelationshipAccumulator) add(source string, relationType string, phrase string, target string, confidence float64, sentence int) bool {
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if utf8.RuneCountInString(source) < 2 || utf8.RuneCountInString(target) < 2 || strings.EqualFold(source, target) || relationType == "" {
		a.rejected++
		return false
	}

	sourceKey := strings.ToLower(source)
	key := sourceKey + "|" + strings.ToLower(relationType) + "|" + strings.ToLower(target)

	keys, ok := a.seen[sourceKey]
	if !ok {
		keys = map[string]struct{}{}
		a.seen[sourceKey] = keys
	}
	if _, dup := keys[key]; dup {
		a.rejected++
		return false
	}
	keys[key] = struct{}{}

	a.relationships = append(a.relationships, &model.ExtractedRelationship{
		SourceEntity:  source,
		TargetEntity:  target,
		Type:          relationType,
		OriginalType:  strings.TrimSpace(phrase),
		Confidence:    confidence,
		SentenceIndex: sentence,
	})
	return true
}

// Relationships returns the accepted triples in insertion order.
func (a *RelationshipAccumulator) Relationships() []*model.ExtractedRelationship {
	return a.relationships
}

// Rejected counts the triples refused by Add.
func (a *RelationshipAccumulator) Rejected() int {
	return a.rejected
}

// FilterBestPerPair keeps the highest-confidence relationship per unordered
// entity pair. Ties keep the earlier triple. The result is sorted by
// confidence, highest first.
func FilterBestPerPair(relationships []*model.ExtractedRelationship) []*model.ExtractedRelationship {
	sorted := make([]*model.ExtractedRelationship, len(relationships))
	copy(sorted, relationships)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	seen := map[string]struct{}{}
	best := []*model.ExtractedRelationship{}
	for _, r := range sorted {
		if strings.EqualFold(r.SourceEntity, r.TargetEntity) {
			continue
		}
		key := pairKey(r.SourceEntity, r.TargetEntity)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		best = append(best, r)
	}
	return best
}

func pairKey(a string, b string) string {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
