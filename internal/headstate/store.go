package headstate

import "context"

// Record is the head record returned by a store after a commit.
type Record struct {
	ID            string
	MigrationName string
}

// Store persists head records. Implementations must make Replace atomic: an
// observer never sees zero or two records, short of a backend failure.
type Store interface {
	// List returns the migration name of every head record.
	List(ctx context.Context) ([]string, error)

	// Replace deletes all head records and creates one naming name.
	Replace(ctx context.Context, name string) (Record, error)

	// Query runs a raw query against the backend on behalf of a hook script.
	Query(ctx context.Context, query string, variables map[string]any) (map[string]any, error)

	Close() error
}
