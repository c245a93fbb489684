// Package ir is the value model of the connector: the scalars stored in
// dataset rows and the ordered objects and row sets a query produces.
//
// ir imports no other internal package.
//
// Numbers are int64 only; floats are rejected wherever JSON is decoded.
// Equal never coerces between kinds, and Compare orders mixed kinds
// null < bool < int < string.
package ir
