package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/schemahead/schemahead/internal/errs"
)

// Unit is one migration: a directory holding a schema snapshot and an
// optional hook script.
type Unit struct {
	Name     string
	Index    int
	Dir      string
	HookPath string
}

// Registry lists the migrations stored under a directory. It never caches;
// every call re-reads the directory.
type Registry struct {
	dir      string
	hookFile string
}

// New creates a registry over dir. hookFile is the per-migration hook script
// name, e.g. "job.go".
func New(dir, hookFile string) *Registry {
	return &Registry{dir: dir, hookFile: hookFile}
}

// Dir returns the migrations directory.
func (r *Registry) Dir() string {
	return r.dir
}

// ListUnits returns every migration directory sorted by name. Entries that are
// not directories are skipped.
func (r *Registry) ListUnits() ([]Unit, error) {
	info, err := os.Stat(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrRegistryUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", errs.ErrRegistryUnavailable, r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrRegistryUnavailable, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	// The timestamp prefix is fixed width, so lexical order is chronological.
	sort.Strings(names)

	units := make([]Unit, len(names))
	for i, name := range names {
		dir := filepath.Join(r.dir, name)
		units[i] = Unit{
			Name:     name,
			Index:    i,
			Dir:      dir,
			HookPath: filepath.Join(dir, r.hookFile),
		}
	}
	return units, nil
}

// Names returns the ordered migration names.
func (r *Registry) Names() ([]string, error) {
	units, err := r.ListUnits()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return names, nil
}

// Find returns the migration called name, or ErrInvalidHead listing the valid
// names.
func (r *Registry) Find(name string) (Unit, error) {
	units, err := r.ListUnits()
	if err != nil {
		return Unit{}, err
	}
	for _, u := range units {
		if u.Name == name {
			return u, nil
		}
	}
	valid := make([]string, len(units))
	for i, u := range units {
		valid[i] = u.Name
	}
	return Unit{}, fmt.Errorf("%w: %q is not a known migration, must be one of %v", errs.ErrInvalidHead, name, valid)
}

// Latest returns the newest migration.
func (r *Registry) Latest() (Unit, error) {
	units, err := r.ListUnits()
	if err != nil {
		return Unit{}, err
	}
	if len(units) == 0 {
		return Unit{}, fmt.Errorf("%w: no migrations found in %s", errs.ErrInvalidHead, r.dir)
	}
	return units[len(units)-1], nil
}
