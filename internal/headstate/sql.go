package headstate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// headTable holds at most one row in normal operation.
const headTable = "schemahead_head"

// SQLStore keeps head records in a table of a SQL database.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

var _ Store = (*SQLStore)(nil)

// driverName maps a dialect to its database/sql driver name. The drivers are
// registered by blank imports in main.
func driverName(dialect string) (string, error) {
	switch dialect {
	case "postgres":
		return "postgres", nil
	case "sqlite":
		return "sqlite", nil
	case "libsql":
		return "libsql", nil
	default:
		return "", fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// OpenSQLStore opens a connection, runs a ping to test it and ensures the
// head table exists.
func OpenSQLStore(ctx context.Context, dialect, url string) (*SQLStore, error) {
	name, err := driverName(dialect)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(name, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store, err := NewSQLStore(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an open database and creates the head table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect string) (*SQLStore, error) {
	if _, err := driverName(dialect); err != nil {
		return nil, err
	}
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+headTable+` (
		id             TEXT PRIMARY KEY,
		migration_name TEXT NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("create %s table: %w", headTable, err)
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// List returns the migration name of every head row.
func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT migration_name FROM `+headTable+` ORDER BY migration_name`)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", headTable, err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan head: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Replace deletes every head row and inserts one in a single transaction.
func (s *SQLStore) Replace(ctx context.Context, name string) (Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("begin tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+headTable); err != nil {
		_ = tx.Rollback()
		return Record{}, fmt.Errorf("delete heads: %w", err)
	}

	record := Record{ID: uuid.NewString(), MigrationName: name}
	insert := fmt.Sprintf(`INSERT INTO %s (id, migration_name) VALUES (%s, %s)`, headTable, s.placeholder(1), s.placeholder(2))
	if _, err := tx.ExecContext(ctx, insert, record.ID, record.MigrationName); err != nil {
		_ = tx.Rollback()
		return Record{}, fmt.Errorf("insert head: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit head: %w", err)
	}
	return record, nil
}

// Query runs a SQL query for a hook script. variables["args"], when present,
// must be a []any of positional arguments. Rows are returned under "rows".
func (s *SQLStore) Query(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	var args []any
	if raw, ok := variables["args"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("variables[\"args\"] must be a list, got %T", raw)
		}
		args = list
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	result := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return map[string]any{"rows": result}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
