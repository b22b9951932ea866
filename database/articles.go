package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
	loadSql "github.com/siherrmann/newsgraph/sql"
)

// ArticlesDBHandlerFunctions defines the interface for Articles database operations.
type ArticlesDBHandlerFunctions interface {
	UpsertArticle(ctx context.Context, article *model.Article) error
	SelectArticle(ctx context.Context, id uuid.UUID) (*model.Article, error)
	SelectArticleByExternalID(ctx context.Context, externalID string) (*model.Article, error)
	SelectAllArticles(ctx context.Context, limit int) ([]*model.Article, error)
	DeleteArticle(ctx context.Context, externalID string) (int, error)
	CountArticles(ctx context.Context) (int, error)
}

// ArticlesDBHandler handles article-related database operations
type ArticlesDBHandler struct {
	db *helper.Database
	q  helper.Querier
}

// NewArticlesDBHandler creates a new articles database handler.
// It loads the article-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewArticlesDBHandler(db *helper.Database, force bool) (*ArticlesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	articlesDbHandler := &ArticlesDBHandler{
		db: db,
		q:  db.Instance,
	}

	err := loadSql.LoadArticlesSql(articlesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load articles sql", err)
	}

	err = articlesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ArticlesDBHandler")

	return articlesDbHandler, nil
}

// CreateTable creates the 'articles' table in the database.
// If the table already exists, it does not create it again.
func (h *ArticlesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_articles();`)
	if err != nil {
		log.Panicf("error initializing articles table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table articles")

	return nil
}

// WithTx returns a handler running its queries on q, usually a *sql.Tx.
func (h *ArticlesDBHandler) WithTx(q helper.Querier) *ArticlesDBHandler {
	return &ArticlesDBHandler{db: h.db, q: q}
}

// UpsertArticle inserts the article or updates it by external id.
// A zero ID is replaced by a fresh one, an existing article keeps its stored ID.
func (h *ArticlesDBHandler) UpsertArticle(ctx context.Context, article *model.Article) error {
	if article.ExternalID == "" {
		return helper.NewError("article validation", fmt.Errorf("external id is empty"))
	}
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}

	row := h.q.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_article($1, $2, $3, $4, $5, $6)`,
		article.ID,
		article.ExternalID,
		article.Title,
		article.Text,
		article.AuthorID,
		article.Metadata,
	)

	err := scanArticle(row, article)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectArticle retrieves an article by its internal ID
func (h *ArticlesDBHandler) SelectArticle(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	article := &model.Article{}
	row := h.q.QueryRowContext(ctx, `SELECT * FROM select_article($1)`, id)

	err := scanArticle(row, article)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select article", helper.ErrNotFound)
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return article, nil
}

// SelectArticleByExternalID retrieves an article by its external ID
func (h *ArticlesDBHandler) SelectArticleByExternalID(ctx context.Context, externalID string) (*model.Article, error) {
	article := &model.Article{}
	row := h.q.QueryRowContext(ctx, `SELECT * FROM select_article_by_external_id($1)`, externalID)

	err := scanArticle(row, article)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helper.NewError("select article", fmt.Errorf("%w: article %s", helper.ErrNotFound, externalID))
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return article, nil
}

// SelectAllArticles retrieves the newest articles
func (h *ArticlesDBHandler) SelectAllArticles(ctx context.Context, limit int) ([]*model.Article, error) {
	rows, err := h.q.QueryContext(ctx, `SELECT * FROM select_all_articles($1)`, limit)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var articles []*model.Article
	for rows.Next() {
		article := &model.Article{}
		err := scanArticle(rows, article)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		articles = append(articles, article)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return articles, nil
}

// DeleteArticle deletes an article and its mentions, returning the number of deleted articles
func (h *ArticlesDBHandler) DeleteArticle(ctx context.Context, externalID string) (int, error) {
	var deleted int
	err := h.q.QueryRowContext(ctx, `SELECT delete_article($1)`, externalID).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}

// CountArticles returns the number of stored articles
func (h *ArticlesDBHandler) CountArticles(ctx context.Context) (int, error) {
	var count int
	err := h.q.QueryRowContext(ctx, `SELECT count_articles()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row scanner, article *model.Article) error {
	return row.Scan(
		&article.ID,
		&article.ExternalID,
		&article.Title,
		&article.Text,
		&article.AuthorID,
		&article.Metadata,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
}
