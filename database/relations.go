package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	loadSql "github.com/siherrmann/newsgraph/sql"
)

// RelationsDBHandlerFunctions defines the interface for Relations database operations.
type RelationsDBHandlerFunctions interface {
	MergeRelation(ctx context.Context, relation *model.Relation) error
	SelectRelationsAmong(ctx context.Context, entityIDs []uuid.UUID) ([]*model.Relation, error)
	SelectRelationsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Relation, error)
	CountRelations(ctx context.Context) (int, error)
	SelectTopRelationTypes(ctx context.Context, limit int) ([]model.RelationTypeCount, error)
}

// RelationsDBHandler handles the typed edges between entities
type RelationsDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

// NewRelationsDBHandler creates a new relations database handler.
// The entities table must exist.
func NewRelationsDBHandler(db *helper.Database, force bool) (*RelationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationsDbHandler := &RelationsDBHandler{
		db: db,
		q:  db.Instance,
	}

	err := loadSql.LoadRelationsSql(relationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relations sql", err)
	}

	err = relationsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationsDBHandler")

	return relationsDbHandler, nil
}

// CreateTable creates the 'relations' table in the database.
func (h *RelationsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relations();`)
	if err != nil {
		log.Panicf("error initializing relations table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table relations")

	return nil
}

// WithTx returns a handler running its queries on q, usually a *sql.Tx.
func (h *RelationsDBHandler) WithTx(q helper.Querier) *RelationsDBHandler {
	return &RelationsDBHandler{db: h.db, q: q}
}

// MergeRelation creates the relation or updates confidence and original type
// of the existing (source, type, target) relation.
func (h *RelationsDBHandler) MergeRelation(ctx context.Context, relation *model.Relation) error {
	if relation.SourceEntityID == relation.TargetEntityID {
		return helper.NewError("relation validation", fmt.Errorf("self relation on %s", relation.SourceEntityID))
	}
	if relation.RelationType == "" {
		return helper.NewError("relation validation", helper.ErrMalformedRelationType)
	}
	if relation.ID == uuid.Nil {
		relation.ID = uuid.New()
	}

	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM merge_relation($1, $2, $3, $4, $5, $6)`,
		relation.ID,
		relation.SourceEntityID,
		relation.TargetEntityID,
		relation.RelationType,
		relation.OriginalType,
		relation.Confidence,
	)

	err := scanRelation(row, relation)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRelationsAmong retrieves the relations whose endpoints are both in entityIDs
func (h *RelationsDBHandler) SelectRelationsAmong(ctx context.Context, entityIDs []uuid.UUID) ([]*model.Relation, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(entityIDs))
	for i, id := range entityIDs {
		ids[i] = id.String()
	}

	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_relations_among($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return collectRelations(rows)
}

// SelectRelationsOfEntity retrieves incoming and outgoing relations of an entity
func (h *RelationsDBHandler) SelectRelationsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Relation, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_relations_of_entity($1)`, entityID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return collectRelations(rows)
}

// CountRelations returns the number of stored relations
func (h *RelationsDBHandler) CountRelations(ctx context.Context) (int, error) {
	var count int
	err := h.q.QueryRowContext(ctx, `SELECT count_relations()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// SelectTopRelationTypes returns the most frequent relation types
func (h *RelationsDBHandler) SelectTopRelationTypes(ctx context.Context, limit int) ([]model.RelationTypeCount, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_top_relation_types($1)`, limit)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var counts []model.RelationTypeCount
	for rows.Next() {
		var c model.RelationTypeCount
		if err := rows.Scan(&c.RelationType, &c.Count); err != nil {
			return nil, helper.NewError("scan", err)
		}
		counts = append(counts, c)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return counts, nil
}

func collectRelations(rows *sql.Rows) ([]*model.Relation, error) {
	defer rows.Close()

	var relations []*model.Relation
	for rows.Next() {
		relation := &model.Relation{}
		err := scanRelation(rows, relation)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		relations = append(relations, relation)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relations, nil
}

func scanRelation(row scanner, relation *model.Relation) error {
	return row.Scan(
		&relation.ID,
		&relation.SourceEntityID,
		&relation.TargetEntityID,
		&relation.RelationType,
		&relation.OriginalType,
		&relation.Confidence,
		&relation.CreatedAt,
		&relation.UpdatedAt,
	)
}
