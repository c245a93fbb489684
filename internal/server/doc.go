// Package server exposes the query executor over HTTP with gin.
//
// Routes:
//
//	GET  /              greeting
//	GET  /capabilities  capabilities document
//	GET  /schema        schema document
//	GET  /healthz       "OK"
//	GET  /metrics       Prometheus exposition
//	POST /query         execute a query request
//	POST /mutation      501 NOT_IMPLEMENTED (also /mutations)
//	POST /explain       501 NOT_IMPLEMENTED
//
// Every error is a JSON ErrorBody. Query errors keep their engine code
// and map to a status with StatusFor.
package server
