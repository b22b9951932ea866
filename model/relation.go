package model

import (
	"time"

	"github.com/google/uuid"
)

// Mention is the edge from an entity to an article mentioning it.
// It is unique per (entity, article).
type Mention struct {
	EntityID          uuid.UUID `json:"entity_id"`
	ArticleID         uuid.UUID `json:"article_id"`
	ArticleExternalID string    `json:"article_external_id,omitempty"`
	Count             int       `json:"count"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Relation is a typed edge between two entities, unique per (source, relation type, target).
type Relation struct {
	ID             uuid.UUID `json:"id"`
	SourceEntityID uuid.UUID `json:"source_entity_id"`
	TargetEntityID uuid.UUID `json:"target_entity_id"`
	RelationType   string    `json:"relation_type"`
	OriginalType   string    `json:"original_type"`
	Confidence     float64   `json:"confidence"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Key identifies the relation by its endpoints and type.
func (r *Relation) Key() string {
	return r.SourceEntityID.String() + "|" + r.RelationType + "|" + r.TargetEntityID.String()
}
