package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistryUnavailable indicates the migrations directory does not exist
	// or is not a directory.
	ErrRegistryUnavailable = errors.New("migration registry unavailable")

	// ErrInconsistentHead indicates zero or several head records exist where
	// exactly one is required. It is never repaired automatically.
	ErrInconsistentHead = errors.New("inconsistent head")

	// ErrInvalidHead indicates a head or target name that does not match any
	// known migration.
	ErrInvalidHead = errors.New("invalid head")

	// ErrHookContractViolation indicates a hook script failed, panicked,
	// imported a forbidden package or returned no result.
	ErrHookContractViolation = errors.New("hook contract violation")

	// ErrDeployFailure indicates the deploy command exited unsuccessfully.
	ErrDeployFailure = errors.New("deploy failed")

	// ErrCollaboratorMissing indicates the deploy command is not installed or
	// not on PATH.
	ErrCollaboratorMissing = errors.New("deploy command not found")

	// ErrInvalidConfig indicates configuration that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// StepError reports which migration and which phase of it failed.
type StepError struct {
	Unit   string
	Action string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("migration %s failed during %s: %v", e.Unit, e.Action, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Exit codes returned by the schemahead binary.
const (
	ExitFailure             = 1
	ExitConfig              = 2
	ExitHead                = 3
	ExitHook                = 4
	ExitDeploy              = 5
	ExitCollaboratorMissing = 6
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrCollaboratorMissing):
		return ExitCollaboratorMissing
	case errors.Is(err, ErrDeployFailure):
		return ExitDeploy
	case errors.Is(err, ErrHookContractViolation):
		return ExitHook
	case errors.Is(err, ErrInconsistentHead), errors.Is(err, ErrInvalidHead):
		return ExitHead
	case errors.Is(err, ErrRegistryUnavailable), errors.Is(err, ErrInvalidConfig):
		return ExitConfig
	default:
		return ExitFailure
	}
}
