package store

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/roach88/ndcstatic/internal/ir"
)

//go:embed data/*.json
var defaultData embed.FS

// Default returns the built-in authors/articles dataset.
func Default() (*Store, error) {
	sub, err := fs.Sub(defaultData, "data")
	if err != nil {
		return nil, fmt.Errorf("default dataset: %w", err)
	}
	s, err := loadFS(sub)
	if err != nil {
		return nil, fmt.Errorf("default dataset: %w", err)
	}
	return s, nil
}

// LoadDir builds a Store from a directory of JSON files. Each <name>.json
// holds a JSON array of row objects and becomes collection <name>.
// Other files and subdirectories are ignored.
//
// Numbers must be integers. A fractional or exponent number fails the load.
func LoadDir(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("load dataset: %s is not a directory", dir)
	}
	s, err := loadFS(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", dir, err)
	}
	return s, nil
}

// loadFS reads every top-level *.json file of fsys, sorted by name.
func loadFS(fsys fs.FS) (*Store, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	var tables []ir.Table
	for _, entry := range entries { // fs.ReadDir sorts by filename
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, err
		}
		rows, err := ir.DecodeRows(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		tables = append(tables, ir.Table{
			Name: strings.TrimSuffix(entry.Name(), ".json"),
			Rows: rows,
		})
	}
	return New(tables...)
}
