package wizard

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/schemahead/schemahead/internal/headstate"
)

// ValidateEnvironmentName checks if an environment name is valid
func ValidateEnvironmentName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name cannot be empty")
	}

	for _, ch := range name {
		isValid := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-'
		if !isValid {
			return fmt.Errorf("environment name must contain only letters, numbers, underscores, and hyphens")
		}
	}

	return nil
}

// ValidateEndpoint checks that a GraphQL endpoint is an absolute http(s) URL.
func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint is missing a host")
	}
	return nil
}

// ValidateConnectionString checks if a connection string is well-formed
func ValidateConnectionString(connStr string, dialect string) error {
	if connStr == "" {
		return fmt.Errorf("connection string cannot be empty")
	}

	switch dialect {
	case "postgres":
		if !strings.HasPrefix(connStr, "postgres://") &&
			!strings.HasPrefix(connStr, "postgresql://") {
			return fmt.Errorf("PostgreSQL connection string must start with postgres:// or postgresql://")
		}

	case "sqlite":
		if !strings.HasPrefix(connStr, "file:") &&
			!strings.HasPrefix(connStr, "./") &&
			!strings.HasPrefix(connStr, "/") &&
			!strings.Contains(connStr, ".db") {
			return fmt.Errorf("SQLite connection string must be file: or a file path")
		}

	case "libsql":
		if !strings.HasPrefix(connStr, "libsql://") {
			return fmt.Errorf("libSQL connection string must start with libsql://")
		}

	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}

	return nil
}

// TestConnection reads the head records from the configured store, which
// checks connectivity and permissions in one round trip.
func TestConnection(env EnvironmentInput) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store headstate.Store
	switch env.HeadStore {
	case "graphql":
		store = headstate.NewGraphQLStore(headstate.GraphQLConfig{
			Endpoint:   env.Endpoint,
			Token:      env.Token,
			Timeout:    5 * time.Second,
			MaxRetries: 1,
		}, hclog.NewNullLogger())
	case "sql":
		s, err := headstate.OpenSQLStore(ctx, env.Dialect, env.DatabaseURL)
		if err != nil {
			return err
		}
		store = s
	default:
		return fmt.Errorf("unsupported head store: %s", env.HeadStore)
	}
	defer func() { _ = store.Close() }()

	if _, err := store.List(ctx); err != nil {
		return fmt.Errorf("failed to read head records: %w", err)
	}
	return nil
}
