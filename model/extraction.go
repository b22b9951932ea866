package model

import "strings"

// ExtractedEntity is an entity consolidated from one document. It is identified
// by its lowercase name during consolidation.
type ExtractedEntity struct {
	Name         string     `json:"name"`
	Type         EntityType `json:"type"`
	MentionCount int        `json:"mention_count"`
	Positions    []int      `json:"positions"`
}

// Key is the consolidation key of the entity.
func (e *ExtractedEntity) Key() string {
	return strings.ToLower(e.Name)
}

// AddPosition records a sentence position once.
func (e *ExtractedEntity) AddPosition(position int) {
	for _, p := range e.Positions {
		if p == position {
			return
		}
	}
	e.Positions = append(e.Positions, position)
}

// ExtractedRelationship is a typed, scored triple between two entities of the same document.
// Type is the relation identifier, OriginalType the phrase it was derived from.
type ExtractedRelationship struct {
	SourceEntity  string  `json:"source_entity"`
	TargetEntity  string  `json:"target_entity"`
	Type          string  `json:"type"`
	OriginalType  string  `json:"original_type,omitempty"`
	Confidence    float64 `json:"confidence"`
	SentenceIndex int     `json:"sentence_index"`
}

// Phrase returns the original relation phrase, or the type if none was recorded.
func (r *ExtractedRelationship) Phrase() string {
	if r.OriginalType != "" {
		return r.OriginalType
	}
	return r.Type
}

// ExtractionResult is the output of processing one article.
type ExtractionResult struct {
	Title         string                   `json:"title"`
	Text          string                   `json:"text"`
	Entities      []*ExtractedEntity       `json:"entities"`
	Relationships []*ExtractedRelationship `json:"relationships"`
	KeyPhrases    []string                 `json:"key_phrases,omitempty"`
}

// Entity returns the extracted entity with the given name (case-insensitive).
func (r *ExtractionResult) Entity(name string) *ExtractedEntity {
	key := strings.ToLower(name)
	for _, e := range r.Entities {
		if e.Key() == key {
			return e
		}
	}
	return nil
}
