package model

// ArticleGraph is the subgraph around one article.
type ArticleGraph struct {
	Article       *Article         `json:"article"`
	Entities      []*ArticleEntity `json:"entities"`
	Relationships []*Relation      `json:"relationships"`
}

// EntityGraph is the neighbourhood of one entity: its relations, the
// entities at their other end and the articles mentioning it.
type EntityGraph struct {
	Entity        *Entity          `json:"entity"`
	Neighbors     []*Entity        `json:"neighbors"`
	Relationships []*Relation      `json:"relationships"`
	Articles      []*EntityArticle `json:"articles"`
}

// EntityArticle is an article mentioning an entity.
type EntityArticle struct {
	ExternalID   string `json:"external_id"`
	Title        string `json:"title"`
	MentionCount int    `json:"mention_count"`
}

// RelatedArticle is an article sharing entities with another one.
type RelatedArticle struct {
	ExternalID     string `json:"external_id"`
	Weight         int    `json:"weight"`
	SharedEntities int    `json:"shared_entities"`
}

// RelationTypeCount is the number of relations of one type.
type RelationTypeCount struct {
	RelationType string `json:"relation_type"`
	Count        int    `json:"count"`
}

// GraphStatistics summarizes the stored graph.
type GraphStatistics struct {
	ArticleCount     int                 `json:"article_count"`
	EntityCount      int                 `json:"entity_count"`
	EntitiesByType   map[EntityType]int  `json:"entities_by_type"`
	RelationCount    int                 `json:"relation_count"`
	TopRelationTypes []RelationTypeCount `json:"top_relation_types"`
}

// EdgeKind names the kind of edge a write outcome belongs to.
type EdgeKind string

const (
	EdgeKindMention  EdgeKind = "mention"
	EdgeKindRelation EdgeKind = "relation"
)

// EdgeOutcome is the result of writing one edge. Err is nil on success.
type EdgeOutcome struct {
	Kind   EdgeKind `json:"kind"`
	Source string   `json:"source"`
	Type   string   `json:"type,omitempty"`
	Target string   `json:"target"`
	Err    error    `json:"-"`
}

// PersistReport collects the outcome of persisting one article.
type PersistReport struct {
	Article  *Article      `json:"article"`
	Entities int           `json:"entities"`
	Outcomes []EdgeOutcome `json:"outcomes"`
}

// Failed returns the outcomes that did not succeed.
func (r *PersistReport) Failed() []EdgeOutcome {
	var failed []EdgeOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Written counts the successful writes of one kind.
func (r *PersistReport) Written(kind EdgeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind && o.Err == nil {
			n++
		}
	}
	return n
}
