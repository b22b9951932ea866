package helper

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Neo4jConfiguration holds the connection settings of the Neo4j graph store.
type Neo4jConfiguration struct {
	URI      string
	Username string
	Password string
	Database string
}

// NewNeo4jConfiguration reads NEWSGRAPH_NEO4J_* from the environment.
// The database defaults to "neo4j".
func NewNeo4jConfiguration() (*Neo4jConfiguration, error) {
	_ = godotenv.Load()

	config := &Neo4jConfiguration{
		URI:      os.Getenv("NEWSGRAPH_NEO4J_URI"),
		Username: os.Getenv("NEWSGRAPH_NEO4J_USERNAME"),
		Password: os.Getenv("NEWSGRAPH_NEO4J_PASSWORD"),
		Database: os.Getenv("NEWSGRAPH_NEO4J_DATABASE"),
	}
	if config.Database == "" {
		config.Database = "neo4j"
	}

	if config.URI == "" || config.Username == "" {
		return nil, NewError("configuration validation", fmt.Errorf("NEWSGRAPH_NEO4J_URI and NEWSGRAPH_NEO4J_USERNAME must be set"))
	}

	return config, nil
}
