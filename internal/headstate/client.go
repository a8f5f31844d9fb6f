package headstate

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/go-hclog"
	"github.com/schemahead/schemahead/internal/errs"
)

// State classifies the head records found in the store.
type State int

const (
	HeadSet State = iota
	NoHead
	MultipleHeads
)

func (s State) String() string {
	switch s {
	case HeadSet:
		return "set"
	case NoHead:
		return "none"
	case MultipleHeads:
		return "multiple"
	default:
		return "unknown"
	}
}

// Result is the outcome of reading the head.
type Result struct {
	State   State
	Name    string
	Records []string
}

// Validator checks that a migration name exists.
type Validator interface {
	Names() ([]string, error)
}

// Client reads and writes the single head pointer.
type Client struct {
	store     Store
	validator Validator
	logger    hclog.Logger
}

// NewClient creates a client over store. validator is consulted on every
// SetHead so that only known migrations can become head.
func NewClient(store Store, validator Validator, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		store:     store,
		validator: validator,
		logger:    logger.Named("head"),
	}
}

// GetHead reads the head records. With tolerant set, a missing or ambiguous
// head is returned as-is for the caller to interpret; otherwise both are
// ErrInconsistentHead.
func (c *Client) GetHead(ctx context.Context, tolerant bool) (Result, error) {
	names, err := c.store.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read head: %w", err)
	}

	result := Result{Records: names}
	switch len(names) {
	case 0:
		result.State = NoHead
	case 1:
		result.State = HeadSet
		result.Name = names[0]
	default:
		result.State = MultipleHeads
	}

	if tolerant || result.State == HeadSet {
		return result, nil
	}
	if result.State == NoHead {
		return result, fmt.Errorf("%w: no head record found, exactly one is required; use set-head or deploy first", errs.ErrInconsistentHead)
	}
	return result, fmt.Errorf("%w: found %d head records %v, exactly one is required", errs.ErrInconsistentHead, len(names), names)
}

// SetHead replaces the head with name. name must be a known migration.
func (c *Client) SetHead(ctx context.Context, name string) (Record, error) {
	known, err := c.validator.Names()
	if err != nil {
		return Record{}, err
	}
	if !slices.Contains(known, name) {
		return Record{}, fmt.Errorf("%w: %q is not a valid head, must be one of %v", errs.ErrInvalidHead, name, known)
	}

	record, err := c.store.Replace(ctx, name)
	if err != nil {
		return Record{}, fmt.Errorf("set head to %s: %w", name, err)
	}
	c.logger.Info("head set", "migration", record.MigrationName, "id", record.ID)
	return record, nil
}

// Query exposes the store's raw query capability.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	return c.store.Query(ctx, query, variables)
}
