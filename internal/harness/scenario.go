package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Scenario is one query request with its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Data is a directory of <table>.json files, relative to the scenario
	// file. Empty means the embedded default dataset.
	Data string `yaml:"data,omitempty"`

	// NestedQueries applies where/order_by of nested relationship queries.
	NestedQueries bool `yaml:"nested_queries,omitempty"`

	// Request is the query request, converted to JSON before decoding.
	Request yaml.Node `yaml:"request"`

	// Expect is the expected outcome. Nil skips the comparison.
	Expect *Expect `yaml:"expect,omitempty"`

	// Assertions are checked after Expect.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect holds the expected rows or the expected error code.
type Expect struct {
	// Rows are compared in canonical JSON against the response rows.
	Rows []any `yaml:"rows,omitempty"`

	// Error is the expected error code. When set Rows must be empty.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks one property of the result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number of rows (row_count).
	Count int `yaml:"count,omitempty"`

	// Expect is the subset a row must contain (row_contains).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Column and Values drive row_order.
	Column string `yaml:"column,omitempty"`
	Values []any  `yaml:"values,omitempty"`

	// Code is the expected error code (error_code).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertRowCount    = "row_count"
	AssertRowContains = "row_contains"
	AssertRowOrder    = "row_order"
	AssertErrorCode   = "error_code"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields (typos), missing required fields and a non-mapping
// request are errors. A relative Data path is resolved against the
// scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Data != "" && !filepath.IsAbs(scenario.Data) {
		scenario.Data = filepath.Join(filepath.Dir(path), scenario.Data)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml / *.yml file in dir whose base name
// (without extension) matches the glob filter, sorted by file name.
// An empty filter matches everything.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scenarios directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			base := entry.Name()[:len(entry.Name())-len(ext)]
			matched, err := filepath.Match(filter, base)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
			}
			if !matched {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Request.Kind != yaml.MappingNode {
		return fmt.Errorf("request is required and must be a mapping")
	}
	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}
	if s.Expect != nil && s.Expect.Error != "" && len(s.Expect.Rows) > 0 {
		return fmt.Errorf("expect: rows and error are mutually exclusive")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertRowContains:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for row_contains", index)
		}
	case AssertRowOrder:
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: column is required for row_order", index)
		}
	case AssertErrorCode:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error_code", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// RequestJSON renders the request node as JSON, keeping mapping order.
func (s *Scenario) RequestJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNodeJSON(&buf, &s.Request); err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	return buf.Bytes(), nil
}

func writeNodeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) != 1 {
			return fmt.Errorf("line %d: empty document", n.Line)
		}
		return writeNodeJSON(buf, n.Content[0])

	case yaml.AliasNode:
		return writeNodeJSON(buf, n.Alias)

	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeNodeJSON(buf, n.Content[i+1]); err != nil {
				return fmt.Errorf("%s: %w", n.Content[i].Value, err)
			}
		}
		buf.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, child := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNodeJSON(buf, child); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil

	case yaml.ScalarNode:
		return writeScalarJSON(buf, n)

	default:
		return fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

func writeScalarJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		buf.WriteString(strconv.FormatBool(b))
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return err
		}
		buf.WriteString(strconv.FormatInt(i, 10))
	case "!!str":
		s, err := json.Marshal(n.Value)
		if err != nil {
			return err
		}
		buf.Write(s)
	case "!!float":
		return fmt.Errorf("line %d: floats are not supported: %s", n.Line, n.Value)
	default:
		return fmt.Errorf("line %d: unsupported scalar tag %s", n.Line, n.ShortTag())
	}
	return nil
}
