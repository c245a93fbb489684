package harness

import (
	"github.com/roach88/ndcstatic/internal/ir"
	"github.com/roach88/ndcstatic/internal/queryir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Response is the executor output. Nil when the request failed.
	Response queryir.QueryResponse `json:"response,omitempty"`

	// ErrorCode is the code of a failed request, empty on success.
	ErrorCode string `json:"error_code,omitempty"`

	// Err is the request failure, if any.
	Err error `json:"-"`

	// Errors contains failed expectation messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Rows returns the top-level rows, or nil when the request failed.
func (r *Result) Rows() []*ir.Object {
	if len(r.Response) == 0 {
		return nil
	}
	return r.Response[0].Rows
}
