package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	loadSql "github.com/siherrmann/newsgraph/sql"
)

// MentionsDBHandlerFunctions defines the interface for Mentions database operations.
type MentionsDBHandlerFunctions interface {
	MergeMention(ctx context.Context, mention *model.Mention) error
	SelectArticleEntities(ctx context.Context, articleID uuid.UUID) ([]*model.ArticleEntity, error)
	SelectMentionsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Mention, error)
}

// MentionsDBHandler handles the entity to article mention edges
type MentionsDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

// NewMentionsDBHandler creates a new mentions database handler.
// The articles and entities tables must exist.
func NewMentionsDBHandler(db *helper.Database, force bool) (*MentionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	mentionsDbHandler := &MentionsDBHandler{
		db: db,
		q:  db.Instance,
	}

	err := loadSql.LoadMentionsSql(mentionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load mentions sql", err)
	}

	err = mentionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized MentionsDBHandler")

	return mentionsDbHandler, nil
}

// CreateTable creates the 'mentions' table in the database.
func (h *MentionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_mentions();`)
	if err != nil {
		log.Panicf("error initializing mentions table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table mentions")

	return nil
}

// WithTx returns a handler running its queries on q, usually a *sql.Tx.
func (h *MentionsDBHandler) WithTx(q helper.Querier) *MentionsDBHandler {
	return &MentionsDBHandler{db: h.db, q: q}
}

// MergeMention creates the mention edge or sets its count
func (h *MentionsDBHandler) MergeMention(ctx context.Context, mention *model.Mention) error {
	if mention.Count < 1 {
		return helper.NewError("mention validation", fmt.Errorf("count must be positive, got %d", mention.Count))
	}

	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM merge_mention($1, $2, $3)`,
		mention.EntityID,
		mention.ArticleID,
		mention.Count,
	)

	err := row.Scan(
		&mention.EntityID,
		&mention.ArticleID,
		&mention.Count,
		&mention.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectArticleEntities retrieves the entities mentioned by an article with their mention count
func (h *MentionsDBHandler) SelectArticleEntities(ctx context.Context, articleID uuid.UUID) ([]*model.ArticleEntity, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_article_entities($1)`, articleID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.ArticleEntity
	for rows.Next() {
		entity := &model.ArticleEntity{}
		err := rows.Scan(
			&entity.ID,
			&entity.Name,
			&entity.Type,
			&entity.Metadata,
			&entity.CreatedAt,
			&entity.MentionCount,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// SelectMentionsOfEntity retrieves all articles mentioning an entity
func (h *MentionsDBHandler) SelectMentionsOfEntity(ctx context.Context, entityID uuid.UUID) ([]*model.Mention, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_mentions_of_entity($1)`, entityID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var mentions []*model.Mention
	for rows.Next() {
		mention := &model.Mention{}
		err := rows.Scan(
			&mention.EntityID,
			&mention.ArticleID,
			&mention.ArticleExternalID,
			&mention.Count,
			&mention.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		mentions = append(mentions, mention)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return mentions, nil
}
