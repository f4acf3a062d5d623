package datasource

import (
	// Registers the duckdb database/sql driver.
	_ "github.com/marcboeker/go-duckdb"
)

// DuckDBSource is a bar source backed by a DuckDB database file (or
// ":memory:").
type DuckDBSource struct {
	*sqlSource
}

// NewDuckDBSource opens (creating if needed) a DuckDB-backed bar store at
// path.
func NewDuckDBSource(path string) (*DuckDBSource, error) {
	source, err := newSQLSource("duckdb", path)
	if err != nil {
		return nil, err
	}

	return &DuckDBSource{sqlSource: source}, nil
}
