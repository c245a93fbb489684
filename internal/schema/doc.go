// Package schema holds the static schema and capabilities documents.
//
// The documents are authored in CUE (schema.cue). CUE definitions constrain
// their shape; Parse compiles the source with the CUE Go API, decodes it into
// Go types for lookups and Check, and renders the served JSON from the CUE
// values.
//
// Aggregate functions, functions and procedures are declared for clients but
// never evaluated.
package schema
