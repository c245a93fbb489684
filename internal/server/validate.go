package server

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed request.schema.json
var requestSchemaSource string

// bodyValidator checks request bodies against the JSON Schema of a query
// request before they are decoded.
//
// The schema checks shape only. Expression, operator and field kinds are
// left open so the executor can reject them with a specific error code.
type bodyValidator struct {
	schema *gojsonschema.Schema
}

func newBodyValidator() (*bodyValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchemaSource))
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &bodyValidator{schema: schema}, nil
}

// validate returns nil or a list of violations in gojsonschema order.
func (v *bodyValidator) validate(body []byte) ([]string, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		// Not JSON at all.
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return problems, nil
}

func joinProblems(problems []string) string {
	return strings.Join(problems, "; ")
}
