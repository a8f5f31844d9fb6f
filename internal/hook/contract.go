package hook

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

const resultSchema = `{
  "type": "object",
  "properties": {
    "deployParams": {"type": "string"}
  }
}`

var resultSchemaLoader = gojsonschema.NewStringLoader(resultSchema)

// Result is what a hook script returned.
type Result struct {
	// DeployParams, when set by a pre-deploy hook, replaces the global deploy
	// parameters for this step.
	DeployParams string `mapstructure:"deployParams"`

	// Values holds every other key the script returned.
	Values map[string]any `mapstructure:",remain"`
}

// decodeResult validates raw against the result schema and decodes it. A nil
// map is a contract violation; an empty one is fine.
func decodeResult(raw map[string]any) (*Result, error) {
	if raw == nil {
		return nil, fmt.Errorf("did not receive a result")
	}

	validation, err := gojsonschema.Validate(resultSchemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate result: %w", err)
	}
	if !validation.Valid() {
		problems := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("invalid result: %s", strings.Join(problems, "; "))
	}

	var result Result
	if err := mapstructure.Decode(raw, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}
