package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType classifies entities.
type EntityType string

const (
	EntityTypePerson        EntityType = "Person"
	EntityTypeLocation      EntityType = "Location"
	EntityTypeOrganization  EntityType = "Organization"
	EntityTypeTime          EntityType = "Time"
	EntityTypeNumerical     EntityType = "Numerical"
	EntityTypeMiscellaneous EntityType = "Miscellaneous"
	EntityTypeConcept       EntityType = "Concept"
	EntityTypeOther         EntityType = "Other"
)

// EntityTypes lists all entity types in display order.
var EntityTypes = []EntityType{
	EntityTypePerson,
	EntityTypeLocation,
	EntityTypeOrganization,
	EntityTypeTime,
	EntityTypeNumerical,
	EntityTypeMiscellaneous,
	EntityTypeConcept,
	EntityTypeOther,
}

// ParseEntityType returns the entity type named by s, ignoring case.
func ParseEntityType(s string) (EntityType, error) {
	for _, t := range EntityTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// Entity is a graph node shared by all articles mentioning it.
// At most one entity exists per (lowercase name, type).
type Entity struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Type      EntityType `json:"entity_type"`
	Metadata  Metadata   `json:"metadata,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ArticleEntity is an entity together with how often one article mentions it.
type ArticleEntity struct {
	Entity
	MentionCount int `json:"mention_count"`
}
