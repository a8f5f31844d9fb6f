package diff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// DefaultCommand compares two snapshot directories recursively.
const DefaultCommand = "diff -ru"

// Generator produces a textual diff between two schema snapshots.
type Generator struct {
	name string
	args []string
}

// New parses command into program and arguments. Arguments may be quoted.
func New(command string) (*Generator, error) {
	fields, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("diff command %q: %w", command, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("diff command is empty")
	}
	return &Generator{name: fields[0], args: fields[1:]}, nil
}

// Diff returns the differences between oldDir and newDir. diff(1) exits 1
// when the inputs differ, which is not an error here.
func (g *Generator) Diff(ctx context.Context, oldDir, newDir string) (string, error) {
	args := append(append([]string{}, g.args...), oldDir, newDir)
	cmd := exec.CommandContext(ctx, g.name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return stdout.String(), nil
	}
	if err != nil {
		return "", fmt.Errorf("%s %s %s: %w: %s", g.name, oldDir, newDir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
