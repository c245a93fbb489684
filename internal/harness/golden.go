package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ndcstatic/internal/ir"
)

// Snapshot is the golden-file form of a scenario outcome.
// Exactly one of Response and Error is set.
type Snapshot struct {
	ScenarioName string
	Response     []ir.RowSet
	Error        string
}

// toCanonicalMap converts a Snapshot to a map for canonical JSON.
// ir.MarshalCanonical only handles IR types and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	m := map[string]any{"scenario_name": s.ScenarioName}
	if s.Error != "" {
		m["error"] = s.Error
	} else {
		m["response"] = s.Response
	}
	return m
}

// NewSnapshot captures a result.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: name,
		Response:     []ir.RowSet(result.Response),
		Error:        result.ErrorCode,
	}
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := NewSnapshot(name, result)
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its outcome against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario could not be executed. A mismatch fails t
// through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
