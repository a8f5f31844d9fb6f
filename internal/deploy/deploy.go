package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/hashicorp/go-hclog"
	"github.com/schemahead/schemahead/internal/errs"
)

// DefaultCommand is the schema deployment tool invoked for each unit.
const DefaultCommand = "prisma deploy"

// Deployer deploys the schema snapshot in dir.
type Deployer interface {
	Deploy(ctx context.Context, dir, params string) (string, error)
}

// Command runs an external deploy tool with the unit directory as working
// directory.
type Command struct {
	name   string
	args   []string
	logger hclog.Logger
}

var _ Deployer = (*Command)(nil)

// NewCommand parses command, e.g. "prisma deploy", into program and leading
// arguments. Arguments may be quoted as in a POSIX shell.
func NewCommand(command string, logger hclog.Logger) (*Command, error) {
	fields, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("%w: deploy command %q: %v", errs.ErrInvalidConfig, command, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: deploy command is empty", errs.ErrInvalidConfig)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Command{name: fields[0], args: fields[1:], logger: logger.Named("deploy")}, nil
}

// Deploy runs the command in dir with params appended. It returns stdout.
func (c *Command) Deploy(ctx context.Context, dir, params string) (string, error) {
	path, err := resolveProgram(c.name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", errs.ErrCollaboratorMissing, c.name, err)
	}

	extra, err := shlex.Split(params)
	if err != nil {
		return "", fmt.Errorf("%w: deploy params %q: %v", errs.ErrInvalidConfig, params, err)
	}
	args := append(append([]string{}, c.args...), extra...)
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("running deploy", "dir", dir, "command", c.name, "args", args)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), fmt.Errorf("%w: %s exited with code %d: %s",
				errs.ErrDeployFailure, c.name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), fmt.Errorf("%w: %s: %v", errs.ErrDeployFailure, c.name, err)
	}
	return stdout.String(), nil
}

// resolveProgram looks name up like a shell would. A name with a path
// separator is made absolute against the working directory, since the
// command itself runs inside the unit directory.
func resolveProgram(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		return filepath.Abs(path)
	}
	return path, nil
}
