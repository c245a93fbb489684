// Package harness runs query scenarios against the executor.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: articles_by_author
//	description: "Articles of author 1, newest id first"
//	data: ../data            # optional directory of <table>.json files
//	nested_queries: false    # optional, enables nested where/order_by
//	request:                 # a query request, written as YAML
//	  collection: articles
//	  query:
//	    fields:
//	      id: {type: column, column: id}
//	    where: {...}
//	expect:
//	  rows:
//	    - {id: 11}
//	    - {id: 10}
//	assertions:
//	  - type: row_count
//	    count: 2
//
// The request mapping keeps its key order when converted to JSON, so
// output objects list fields in the order the scenario wrote them.
//
// # Expectations
//
// expect.rows compares the whole row set in canonical JSON. expect.error
// instead expects the request to fail with an error code. A request that
// does not decode fails with INVALID_REQUEST.
//
// # Assertion Types
//
//   - row_count: the response has exactly count rows
//   - row_contains: some row has every key/value in expect (subset match)
//   - row_order: the values of column, row by row, equal values
//   - error_code: the request failed with code
//
// # Golden Files
//
// RunWithGolden snapshots the canonical JSON outcome to
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
