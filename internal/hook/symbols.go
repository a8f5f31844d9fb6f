package hook

import (
	"path"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Symbols exports the script-facing API under ImportPath.
var Symbols = interp.Exports{
	ImportPath + "/hook": {
		"Action":     reflect.ValueOf((*Action)(nil)),
		"Args":       reflect.ValueOf((*Args)(nil)),
		"Client":     reflect.ValueOf((*Client)(nil)),
		"Logger":     reflect.ValueOf((*Logger)(nil)),
		"UpBefore":   reflect.ValueOf(UpBefore),
		"UpAfter":    reflect.ValueOf(UpAfter),
		"DownBefore": reflect.ValueOf(DownBefore),
		"DownAfter":  reflect.ValueOf(DownAfter),
	},
}

// allowedStdlib returns the subset of the yaegi stdlib symbols whose import
// path is allowed. Symbol keys have the form "<import path>/<package name>".
func allowedStdlib() interp.Exports {
	out := interp.Exports{}
	for key, symbols := range stdlib.Symbols {
		if IsPackageAllowed(path.Dir(key)) {
			out[key] = symbols
		}
	}
	return out
}
