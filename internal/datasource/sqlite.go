package datasource

import (
	// Registers the cgo-free sqlite database/sql driver.
	_ "modernc.org/sqlite"
)

// SQLiteSource is a bar source backed by a SQLite database file (or
// ":memory:").
type SQLiteSource struct {
	*sqlSource
}

// NewSQLiteSource opens (creating if needed) a SQLite-backed bar store at
// path.
func NewSQLiteSource(path string) (*SQLiteSource, error) {
	source, err := newSQLSource("sqlite", path)
	if err != nil {
		return nil, err
	}

	return &SQLiteSource{sqlSource: source}, nil
}
