package headstate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

const (
	listHeadsQuery = `query {
  migrations {
    migrationName
  }
}`

	replaceHeadMutation = `mutation ($name: String!) {
  deleteManyMigrations {
    count
  }
  createMigration(data: {migrationName: $name}) {
    id
  }
}`
)

// GraphQLConfig configures a GraphQLStore.
type GraphQLConfig struct {
	// Endpoint is the GraphQL endpoint URL (required).
	Endpoint string

	// Token is sent as a bearer token when set.
	Token string

	// Timeout bounds each HTTP request (default: 60s).
	Timeout time.Duration

	// MaxRetries is the number of retries on transport errors and 5xx
	// responses (default: 2).
	MaxRetries int
}

// GraphQLStore keeps head records in a `migrations` collection behind a
// GraphQL endpoint.
type GraphQLStore struct {
	endpoint string
	token    string
	client   *retryablehttp.Client
	logger   hclog.Logger
}

var _ Store = (*GraphQLStore)(nil)

// NewGraphQLStore creates a store for cfg.Endpoint.
func NewGraphQLStore(cfg GraphQLConfig, logger hclog.Logger) *GraphQLStore {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.Timeout

	client := &retryablehttp.Client{
		HTTPClient:   httpClient,
		Logger:       logger.Named("http"),
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 1500 * time.Millisecond,
		RetryMax:     cfg.MaxRetries,
		Backoff:      retryablehttp.LinearJitterBackoff,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	return &GraphQLStore{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   client,
		logger:   logger,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// List returns the migrationName of every record in the collection.
func (s *GraphQLStore) List(ctx context.Context) ([]string, error) {
	var data struct {
		Migrations []struct {
			MigrationName string `json:"migrationName"`
		} `json:"migrations"`
	}
	if err := s.do(ctx, listHeadsQuery, nil, &data); err != nil {
		return nil, err
	}

	names := make([]string, len(data.Migrations))
	for i, m := range data.Migrations {
		names[i] = m.MigrationName
	}
	return names, nil
}

// Replace issues delete-all and create-one in one mutation document, which
// the server executes as a single request.
func (s *GraphQLStore) Replace(ctx context.Context, name string) (Record, error) {
	var data struct {
		DeleteManyMigrations struct {
			Count int `json:"count"`
		} `json:"deleteManyMigrations"`
		CreateMigration struct {
			ID string `json:"id"`
		} `json:"createMigration"`
	}
	if err := s.do(ctx, replaceHeadMutation, map[string]any{"name": name}, &data); err != nil {
		return Record{}, err
	}

	s.logger.Debug("replaced head records", "deleted", data.DeleteManyMigrations.Count, "id", data.CreateMigration.ID)
	return Record{ID: data.CreateMigration.ID, MigrationName: name}, nil
}

// Query runs an arbitrary query or mutation and returns its data object.
func (s *GraphQLStore) Query(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	var data map[string]any
	if err := s.do(ctx, query, variables, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// Close releases idle connections.
func (s *GraphQLStore) Close() error {
	s.client.HTTPClient.CloseIdleConnections()
	return nil
}

func (s *GraphQLStore) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request to %s: %w", s.endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read graphql response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("graphql endpoint %s returned %s: %s", s.endpoint, resp.Status, bytes.TrimSpace(payload))
	}

	var decoded graphQLResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return fmt.Errorf("graphql error: %s (query: %s)", decoded.Errors[0].Message, query)
	}
	if out == nil || len(decoded.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}
