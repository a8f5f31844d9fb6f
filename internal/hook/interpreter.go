package hook

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"

	"github.com/hashicorp/go-hclog"
	"github.com/schemahead/schemahead/internal/errs"
	"github.com/traefik/yaegi/interp"
)

// Runner executes a unit's hook script for one action.
type Runner interface {
	Run(ctx context.Context, scriptPath string, action Action, caps Capabilities) (*Result, error)
}

// Interpreter runs hook scripts in a fresh yaegi interpreter per call, with
// only the allowed stdlib packages and the hook API loaded.
type Interpreter struct {
	logger hclog.Logger
}

var _ Runner = (*Interpreter)(nil)

func NewInterpreter(logger hclog.Logger) *Interpreter {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Interpreter{logger: logger}
}

// Run executes the script at scriptPath. A missing script yields an empty
// result. Every other failure wraps errs.ErrHookContractViolation.
func (in *Interpreter) Run(ctx context.Context, scriptPath string, action Action, caps Capabilities) (*Result, error) {
	source, err := os.ReadFile(scriptPath)
	if errors.Is(err, fs.ErrNotExist) {
		in.logger.Info("skipping hook since the script could not be found", "path", scriptPath, "action", action)
		return &Result{}, nil
	}
	if err != nil {
		return nil, violation("read %s: %v", scriptPath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fn, err := in.load(scriptPath, string(source))
	if err != nil {
		return nil, err
	}

	raw, err := safeCall(ctx, fn, Args{Action: action, Client: caps.Client, Logger: caps.Logger})
	if err != nil {
		return nil, violation("%s returned an error: %v", scriptPath, err)
	}

	result, err := decodeResult(raw)
	if err != nil {
		return nil, violation("%s: %v", scriptPath, err)
	}
	return result, nil
}

func (in *Interpreter) load(scriptPath, source string) (Func, error) {
	pkg, err := ValidateSource(scriptPath, source)
	if err != nil {
		return nil, violation("%s: %v", scriptPath, err)
	}

	out := in.logger.StandardWriter(&hclog.StandardLoggerOptions{InferLevels: true})
	i := interp.New(interp.Options{Stdout: out, Stderr: out})
	if err := i.Use(allowedStdlib()); err != nil {
		return nil, fmt.Errorf("failed to load stdlib symbols: %w", err)
	}
	if err := i.Use(Symbols); err != nil {
		return nil, fmt.Errorf("failed to load hook symbols: %w", err)
	}

	if _, err := i.Eval(source); err != nil {
		return nil, violation("failed to evaluate %s: %v", scriptPath, err)
	}

	v, err := i.Eval(pkg + ".Run")
	if err != nil {
		return nil, violation("%s does not define Run: %v", scriptPath, err)
	}
	if fn, ok := v.Interface().(func(context.Context, Args) (map[string]any, error)); ok {
		return fn, nil
	}
	fn, err := adaptFunc(v)
	if err != nil {
		return nil, violation("%s: %v", scriptPath, err)
	}
	return fn, nil
}

// adaptFunc wraps an interpreted Run whose type does not assert directly to
// Func but has the same shape.
func adaptFunc(v reflect.Value) (Func, error) {
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, fmt.Errorf("Run is not a function")
	}
	t := v.Type()
	if t.NumIn() != 2 || t.NumOut() != 2 {
		return nil, fmt.Errorf("Run must have signature func(context.Context, hook.Args) (map[string]any, error), got %s", t)
	}
	return func(ctx context.Context, args Args) (map[string]any, error) {
		results := v.Call([]reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(args)})
		var res map[string]any
		if !results[0].IsNil() {
			m, ok := results[0].Interface().(map[string]any)
			if !ok {
				return nil, fmt.Errorf("Run returned %T, expected map[string]any", results[0].Interface())
			}
			res = m
		}
		var err error
		if !results[1].IsNil() {
			err, _ = results[1].Interface().(error)
		}
		return res, err
	}, nil
}

// safeCall recovers panics raised by interpreted code.
func safeCall(ctx context.Context, fn Func, args Args) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, args)
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrHookContractViolation, fmt.Sprintf(format, args...))
}
