package schema

import (
	_ "embed"
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var source string

// Document holds the decoded schema and capabilities documents together
// with their served JSON.
//
// The JSON is rendered from the CUE values, so keys appear in the order the
// CUE source declares them.
type Document struct {
	Schema       Schema
	Capabilities Capabilities

	schemaJSON       []byte
	capabilitiesJSON []byte
}

// Default compiles the embedded schema.cue.
func Default() (*Document, error) {
	return Parse("schema.cue", source)
}

// Parse compiles CUE source holding top-level "schema" and "capabilities"
// values. Uses the CUE SDK's Go API directly.
func Parse(filename, src string) (*Document, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(src, cue.Filename(filename))
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	doc := &Document{}
	var err error
	if doc.schemaJSON, err = decode(root, "schema", &doc.Schema); err != nil {
		return nil, err
	}
	if doc.capabilitiesJSON, err = decode(root, "capabilities", &doc.Capabilities); err != nil {
		return nil, err
	}
	return doc, nil
}

// decode validates the value at path as concrete, decodes it into target
// and returns its JSON rendering.
func decode(root cue.Value, path string, target any) ([]byte, error) {
	v := root.LookupPath(cue.ParsePath(path))
	if !v.Exists() {
		return nil, &CompileError{
			Field:   path,
			Message: path + " is required",
			Pos:     root.Pos(),
		}
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Decode(target); err != nil {
		return nil, formatCUEError(err)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return data, nil
}

// SchemaJSON returns the /schema response body.
func (d *Document) SchemaJSON() []byte {
	return slices.Clone(d.schemaJSON)
}

// CapabilitiesJSON returns the /capabilities response body.
func (d *Document) CapabilitiesJSON() []byte {
	return slices.Clone(d.capabilitiesJSON)
}

// Collection returns the declared collection by name.
func (d *Document) Collection(name string) (Collection, bool) {
	for _, c := range d.Schema.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}

// Columns returns the sorted field names of a collection's object type.
// Implements queryir.Catalog.
func (d *Document) Columns(collection string) ([]string, bool) {
	c, ok := d.Collection(collection)
	if !ok {
		return nil, false
	}
	obj, ok := d.Schema.ObjectTypes[c.Type]
	if !ok {
		return []string{}, true
	}
	cols := make([]string, 0, len(obj.Fields))
	for name := range obj.Fields {
		cols = append(cols, name)
	}
	slices.Sort(cols)
	return cols, true
}

// CompileError represents a schema compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
