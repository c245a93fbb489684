// Package store provides the read-only collections a query runs against.
//
// A Store is built once at startup and never changes afterwards:
//
//   - Default: embedded authors/articles dataset
//   - LoadDir: one collection per <name>.json file
//   - LoadSQLite: one collection per table of a SQLite file
//   - New: tables constructed in code (tests, scenarios)
//
// Rows keep their source order: array order for JSON, rowid order for SQLite.
package store
