package registry

import (
	"strings"
	"time"

	"github.com/iancoleman/strcase"
)

// TimestampLayout is the fixed-width UTC prefix of every migration name.
const TimestampLayout = "2006-01-02-150405"

// Slug turns a human migration name into its kebab-case directory suffix.
func Slug(name string) string {
	return strcase.ToKebab(strings.TrimSpace(name))
}

// UnitName builds the directory name for a migration created at t.
func UnitName(name string, t time.Time) string {
	return t.UTC().Format(TimestampLayout) + "_" + Slug(name)
}
