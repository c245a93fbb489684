package testutil

// FixedRequestIDs returns the same request ID every time.
//
// This enables deterministic server tests: log lines and X-Request-ID
// headers are byte-identical across runs.
//
// Thread-safety: FixedRequestIDs is stateless and safe for concurrent use.
type FixedRequestIDs struct {
	id string
}

// NewFixedRequestIDs creates a fixed request ID generator.
//
// If id is empty, Generate() returns "test-request-default".
func NewFixedRequestIDs(id string) *FixedRequestIDs {
	if id == "" {
		id = "test-request-default"
	}
	return &FixedRequestIDs{id: id}
}

// Generate returns the fixed request ID.
//
// Implements server.RequestIDGenerator.
func (g *FixedRequestIDs) Generate() string {
	return g.id
}
