package hook

import "context"

// Client is the remote head-state backend as seen by a hook script.
type Client interface {
	Query(ctx context.Context, query string, variables map[string]any) (map[string]any, error)
}

// Logger is the logging surface exposed to hook scripts. hclog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Args carries everything a hook script may use. Scripts have no other
// capabilities.
type Args struct {
	Action Action
	Client Client
	Logger Logger
}

// Capabilities are the host values injected into a script run.
type Capabilities struct {
	Client Client
	Logger Logger
}

// Func is the signature of a hook script's Run function.
type Func func(ctx context.Context, args Args) (map[string]any, error)
