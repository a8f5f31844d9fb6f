package hook

import (
	"fmt"
	"go/parser"
	"go/token"
	"strings"
)

// ImportPath is the import path under which scripts reach Args and friends.
const ImportPath = "schemahead/hook"

// AllowedPackages are the packages hook scripts may import. Anything else is
// rejected before the script is evaluated.
var AllowedPackages = map[string]bool{
	ImportPath:        true,
	"context":         true,
	"errors":          true,
	"fmt":             true,
	"strings":         true,
	"strconv":         true,
	"time":            true,
	"math":            true,
	"sort":            true,
	"slices":          true,
	"maps":            true,
	"bytes":           true,
	"unicode":         true,
	"unicode/utf8":    true,
	"regexp":          true,
	"encoding/json":   true,
	"encoding/base64": true,
	"crypto/sha256":   true,
}

// BlockedPackages are refused even if added to AllowedPackages.
var BlockedPackages = map[string]bool{
	"os":            true,
	"os/exec":       true,
	"io/ioutil":     true,
	"net":           true,
	"net/http":      true,
	"syscall":       true,
	"unsafe":        true,
	"plugin":        true,
	"reflect":       true,
	"runtime/debug": true,
}

// IsPackageAllowed reports whether a hook script may import pkg.
func IsPackageAllowed(pkg string) bool {
	if BlockedPackages[pkg] {
		return false
	}
	return AllowedPackages[pkg]
}

// ValidateSource checks the import block and rejects imports outside the
// allow list. It returns the script's package name.
func ValidateSource(filename, source string) (string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, source, parser.ImportsOnly)
	if err != nil {
		return "", fmt.Errorf("syntax error: %w", err)
	}
	for _, imp := range f.Imports {
		pkg := strings.Trim(imp.Path.Value, `"`)
		if !IsPackageAllowed(pkg) {
			return "", fmt.Errorf("import %q is not allowed in hook scripts", pkg)
		}
	}
	return f.Name.Name, nil
}
