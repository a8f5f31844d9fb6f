package cmd

import (
	"os"
	"path/filepath"
	"strings"
)

// detectDefaultSchemaDir returns the first existing schema directory in
// priority order: entries of SCHEMAHEAD_SCHEMA_DIR, then database/, then
// prisma/. The returned label is formatted for display.
func detectDefaultSchemaDir() (path string, label string) {
	type candidate struct {
		path  string
		label string
	}
	candidates := make([]candidate, 0, 4)

	if custom := os.Getenv("SCHEMAHEAD_SCHEMA_DIR"); custom != "" {
		for _, part := range filepath.SplitList(custom) {
			if part == "" {
				continue
			}
			label := filepath.ToSlash(part)
			if !strings.HasSuffix(label, "/") {
				label += "/"
			}
			candidates = append(candidates, candidate{path: part, label: label})
		}
	}

	candidates = append(candidates,
		candidate{path: "database", label: "database/"},
		candidate{path: "prisma", label: "prisma/"},
	)

	for _, cand := range candidates {
		if info, err := os.Stat(cand.path); err == nil && info.IsDir() {
			return cand.path, cand.label
		}
	}
	return "", ""
}
