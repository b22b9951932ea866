package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	loadSql "github.com/siherrmann/newsgraph/sql"
)

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	FindOrCreateEntity(ctx context.Context, entity *model.Entity) error
	SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error)
	SelectEntityByName(ctx context.Context, name string, entityType model.EntityType) (*model.Entity, error)
	SelectEntitiesBySearch(ctx context.Context, searchTerm string, entityType *model.EntityType, limit int) ([]*model.Entity, error)
	SelectEntitiesByType(ctx context.Context, entityType model.EntityType, limit int) ([]*model.Entity, error)
	CountEntitiesByType(ctx context.Context) (map[model.EntityType]int, error)
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

// NewEntitiesDBHandler creates a new entities database handler.
// It loads the entity-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
		q:  db.Instance,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// WithTx returns a handler running its queries on q, usually a *sql.Tx.
func (h *EntitiesDBHandler) WithTx(q helper.Querier) *EntitiesDBHandler {
	return &EntitiesDBHandler{db: h.db, q: q}
}

// FindOrCreateEntity returns the stored entity with the same lowercase name and type
// or creates it. The entity is updated in place with the stored values.
func (h *EntitiesDBHandler) FindOrCreateEntity(ctx context.Context, entity *model.Entity) error {
	entity.Name = strings.TrimSpace(entity.Name)
	if entity.Name == "" {
		return helper.NewError("entity validation", fmt.Errorf("entity name is empty"))
	}
	if entity.ID == uuid.Nil {
		entity.ID = uuid.New()
	}

	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM find_or_create_entity($1, $2, $3, $4)`,
		entity.ID,
		entity.Name,
		entity.Type,
		entity.Metadata,
	)

	err := scanEntity(row, entity)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectEntity retrieves an entity by ID
func (h *EntitiesDBHandler) SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.q.QueryRowContext(ctx, `SELECT * FROM select_entity($1)`, id)

	err := scanEntity(row, entity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select entity", helper.ErrNotFound)
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntityByName retrieves an entity by name (case-insensitive) and type
func (h *EntitiesDBHandler) SelectEntityByName(ctx context.Context, name string, entityType model.EntityType) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.q.QueryRowContext(ctx, `SELECT * FROM select_entity_by_name($1, $2)`, name, entityType)

	err := scanEntity(row, entity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select entity by name", helper.ErrNotFound)
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntitiesBySearch searches entities by name substring, optionally filtered by type
func (h *EntitiesDBHandler) SelectEntitiesBySearch(ctx context.Context, searchTerm string, entityType *model.EntityType, limit int) ([]*model.Entity, error) {
	var typeFilter *string
	if entityType != nil {
		s := string(*entityType)
		typeFilter = &s
	}

	rows, err := h.q.QueryContext(
		ctx,
		`SELECT * FROM select_entities_by_search($1, $2, $3)`,
		searchTerm,
		typeFilter,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return collectEntities(rows)
}

// SelectEntitiesByType retrieves entities by type
func (h *EntitiesDBHandler) SelectEntitiesByType(ctx context.Context, entityType model.EntityType, limit int) ([]*model.Entity, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_entities_by_type($1, $2)`, entityType, limit)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return collectEntities(rows)
}

// CountEntitiesByType returns the number of entities per type
func (h *EntitiesDBHandler) CountEntitiesByType(ctx context.Context) (map[model.EntityType]int, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM count_entities_by_type()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	counts := map[model.EntityType]int{}
	for rows.Next() {
		var entityType string
		var count int
		if err := rows.Scan(&entityType, &count); err != nil {
			return nil, helper.NewError("scan", err)
		}
		counts[model.EntityType(entityType)] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return counts, nil
}

func collectEntities(rows *sql.Rows) ([]*model.Entity, error) {
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		err := scanEntity(rows, entity)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

func scanEntity(row scanner, entity *model.Entity) error {
	return row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Type,
		&entity.Metadata,
		&entity.CreatedAt,
	)
}
