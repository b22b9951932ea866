package model

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Article is a news article node. ID is the internal graph id, ExternalID the
// identifier of the external system. The article is upserted by ExternalID.
type Article struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
	Text       string    `json:"text,omitempty"`
	AuthorID   string    `json:"author_id,omitempty"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewArticleFromFile reads a plain text file into an article.
// The title defaults to the filename and the external id to the file path.
func NewArticleFromFile(filePath string, metadata Metadata) (*Article, error) {
	content, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if title == "" {
		title = filename
	}

	return &Article{
		ExternalID: filePath,
		Title:      title,
		Text:       string(content),
		Metadata:   metadata,
	}, nil
}
