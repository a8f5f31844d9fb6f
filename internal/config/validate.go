package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/schemahead/schemahead/internal/errs"
)

// ValidatePaths checks that the schema and migrations directories exist and
// are directories.
func (r Resolved) ValidatePaths() error {
	var result *multierror.Error
	if err := validateFolder(r.SchemaDir, "schema-dir", errs.ErrInvalidConfig); err != nil {
		result = multierror.Append(result, err)
	}
	if err := validateFolder(r.MigrationsDir, "migrations-dir", errs.ErrRegistryUnavailable); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// ValidateHeadStore checks that the configured head store can be reached with
// the settings given.
func (r Resolved) ValidateHeadStore() error {
	var result *multierror.Error
	switch r.HeadStore {
	case HeadStoreGraphQL:
		if r.Endpoint == "" {
			result = multierror.Append(result, fmt.Errorf("%w: environment %q has no endpoint; set endpoint in %s or PRISMA_ENDPOINT", errs.ErrInvalidConfig, r.Environment, FileName))
		}
	case HeadStoreSQL:
		if r.DatabaseURL == "" {
			result = multierror.Append(result, fmt.Errorf("%w: environment %q has no database_url", errs.ErrInvalidConfig, r.Environment))
		}
		switch r.Dialect {
		case "postgres", "sqlite", "libsql":
		default:
			result = multierror.Append(result, fmt.Errorf("%w: unsupported dialect %q, expected postgres, sqlite or libsql", errs.ErrInvalidConfig, r.Dialect))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("%w: unknown head_store %q", errs.ErrInvalidConfig, r.HeadStore))
	}
	if r.RequestTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("%w: request_timeout must be positive", errs.ErrInvalidConfig))
	}
	return result.ErrorOrNil()
}

func validateFolder(folder, flagName string, kind error) error {
	info, err := os.Stat(folder)
	if err != nil {
		return fmt.Errorf("%w: the %s %s does not exist, create it first or set it with --%s", kind, flagName, folder, flagName)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: the %s %s is not a directory", kind, flagName, folder)
	}
	return nil
}
