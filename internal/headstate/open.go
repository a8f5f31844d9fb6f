package headstate

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/schemahead/schemahead/internal/config"
)

// OpenStore opens the head store selected by the resolved configuration.
func OpenStore(ctx context.Context, cfg config.Resolved, logger hclog.Logger) (Store, error) {
	if err := cfg.ValidateHeadStore(); err != nil {
		return nil, err
	}

	switch cfg.HeadStore {
	case config.HeadStoreSQL:
		store, err := OpenSQLStore(ctx, cfg.Dialect, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open %s head store: %w", cfg.Dialect, err)
		}
		return store, nil
	default:
		return NewGraphQLStore(GraphQLConfig{
			Endpoint: cfg.Endpoint,
			Token:    cfg.Token,
			Timeout:  cfg.RequestTimeout,
		}, logger), nil
	}
}
