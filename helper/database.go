package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Database wraps the sql connection pool together with the logger used by all handlers.
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger

	// Bounds read queries of the graph store, zero disables it
	QueryTimeout time.Duration
}

// DatabaseConfiguration holds the connection settings of the Postgres graph store.
type DatabaseConfiguration struct {
	Host         string
	Port         string
	Database     string
	Username     string
	Password     string
	Schema       string
	SSLMode      string
	QueryTimeout time.Duration
}

// Querier is the subset of *sql.DB and *sql.Tx the handlers need,
// so every handler method runs either standalone or inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// NewDatabaseConfiguration reads the configuration from the environment.
// A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:         os.Getenv("NEWSGRAPH_DB_HOST"),
		Port:         os.Getenv("NEWSGRAPH_DB_PORT"),
		Database:     os.Getenv("NEWSGRAPH_DB_DATABASE"),
		Username:     os.Getenv("NEWSGRAPH_DB_USERNAME"),
		Password:     os.Getenv("NEWSGRAPH_DB_PASSWORD"),
		Schema:       os.Getenv("NEWSGRAPH_DB_SCHEMA"),
		SSLMode:      os.Getenv("NEWSGRAPH_DB_SSLMODE"),
		QueryTimeout: 30 * time.Second,
	}

	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}
	if t := os.Getenv("NEWSGRAPH_QUERY_TIMEOUT"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return nil, NewError("parse query timeout", err)
		}
		config.QueryTimeout = d
	}

	if len(config.Host) == 0 || len(config.Port) == 0 || len(config.Database) == 0 || len(config.Username) == 0 {
		return nil, NewError("configuration validation", fmt.Errorf("NEWSGRAPH_DB_HOST, NEWSGRAPH_DB_PORT, NEWSGRAPH_DB_DATABASE and NEWSGRAPH_DB_USERNAME must be set"))
	}
	if _, err := strconv.Atoi(config.Port); err != nil {
		return nil, NewError("configuration validation", fmt.Errorf("invalid port %q: %w", config.Port, err))
	}

	return config, nil
}

// ConnectionString builds the lib/pq connection string.
func (c *DatabaseConfiguration) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.SSLMode, c.Schema,
	)
}

// NewDatabase opens and pings the connection. It panics if the database is not reachable
// since nothing in the service can run without it.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		log.Panicf("error opening database %s: %v", name, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Panicf("error connecting to database %s: %v", name, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Name:         name,
		Instance:     db,
		Logger:       logger,
		QueryTimeout: config.QueryTimeout,
	}
}

// NewTestDatabase creates a database with a debug logger for tests.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug},
	}))
	return NewDatabase("test", config, logger)
}

// WithTimeout derives a context bounded by the query timeout.
func (d *Database) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.QueryTimeout)
}

// Close closes the connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}
