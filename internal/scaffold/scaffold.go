// Package scaffold creates new migration directories from the working schema.
package scaffold

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/schemahead/schemahead/internal/registry"
	"gopkg.in/yaml.v3"
)

// MaxNameLength bounds the human name given to a migration.
const MaxNameLength = 20

// TemplateFile is the user template looked up in the migrations directory.
const TemplateFile = "template.go"

//go:embed template.go.tmpl
var defaultTemplate []byte

// Differ compares two snapshot directories.
type Differ interface {
	Diff(ctx context.Context, oldDir, newDir string) (string, error)
}

// Config configures a Scaffolder.
type Config struct {
	SchemaDir     string
	MigrationsDir string
	HookFile      string
	Differ        Differ
	Logger        hclog.Logger
	Now           func() time.Time
}

// Scaffolder creates migration units.
type Scaffolder struct {
	cfg      Config
	registry *registry.Registry
}

func New(cfg Config) *Scaffolder {
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.HookFile == "" {
		cfg.HookFile = "job.go"
	}
	return &Scaffolder{cfg: cfg, registry: registry.New(cfg.MigrationsDir, cfg.HookFile)}
}

type prismaConfig struct {
	Datamodel []string `yaml:"datamodel"`
	Endpoint  string   `yaml:"endpoint"`
}

// Create makes a new unit named after name, copying every *.graphql file
// from the schema directory and writing prisma.yml and the hook script.
func (s *Scaffolder) Create(ctx context.Context, name string) (registry.Unit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return registry.Unit{}, errors.New("you should give a name to your migration")
	}
	if len(name) > MaxNameLength {
		return registry.Unit{}, fmt.Errorf("max length of name is %d, got %d", MaxNameLength, len(name))
	}

	previous, err := s.registry.ListUnits()
	if err != nil {
		return registry.Unit{}, err
	}

	files, err := schemaFiles(s.cfg.SchemaDir)
	if err != nil {
		return registry.Unit{}, err
	}

	unitName := registry.UnitName(name, s.cfg.Now())
	dir := filepath.Join(s.cfg.MigrationsDir, unitName)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return registry.Unit{}, fmt.Errorf("failed to create migration directory: %w", err)
	}

	for _, file := range files {
		if err := copyFile(filepath.Join(s.cfg.SchemaDir, file), filepath.Join(dir, file)); err != nil {
			return registry.Unit{}, err
		}
	}

	prismaYAML, err := yaml.Marshal(prismaConfig{Datamodel: files, Endpoint: "${env:PRISMA_ENDPOINT}"})
	if err != nil {
		return registry.Unit{}, fmt.Errorf("failed to encode prisma.yml: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prisma.yml"), prismaYAML, 0o644); err != nil {
		return registry.Unit{}, fmt.Errorf("failed to write prisma.yml: %w", err)
	}

	template, err := s.template()
	if err != nil {
		return registry.Unit{}, err
	}
	if len(previous) > 0 {
		template = append(s.diffComment(ctx, previous[len(previous)-1].Dir, dir), template...)
	}
	hookPath := filepath.Join(dir, s.cfg.HookFile)
	if err := os.WriteFile(hookPath, template, 0o644); err != nil {
		return registry.Unit{}, fmt.Errorf("failed to write %s: %w", s.cfg.HookFile, err)
	}

	s.cfg.Logger.Info("created migration", "name", unitName, "files", len(files))
	return registry.Unit{Name: unitName, Index: len(previous), Dir: dir, HookPath: hookPath}, nil
}

func (s *Scaffolder) template() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.cfg.MigrationsDir, TemplateFile))
	if errors.Is(err, fs.ErrNotExist) {
		return append([]byte(nil), defaultTemplate...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", TemplateFile, err)
	}
	return data, nil
}

// diffComment renders the schema changes since the previous unit as a line
// comment block. A failed diff only logs a warning.
func (s *Scaffolder) diffComment(ctx context.Context, oldDir, newDir string) []byte {
	if s.cfg.Differ == nil {
		return nil
	}
	out, err := s.cfg.Differ.Diff(ctx, oldDir, newDir)
	if err != nil {
		s.cfg.Logger.Warn("could not diff against previous migration", "error", err)
		return nil
	}
	if strings.TrimSpace(out) == "" {
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString("// Changes since " + filepath.Base(oldDir) + ":\n//\n")
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		buf.WriteString("//\t" + line + "\n")
	}
	buf.WriteString("\n")
	return buf.Bytes()
}

func schemaFiles(schemaDir string) ([]string, error) {
	entries, err := os.ReadDir(schemaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), ".graphql") {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .graphql files found in %s", schemaDir)
	}
	sort.Strings(files)
	return files, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
