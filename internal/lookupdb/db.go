// Package lookupdb persists the simulation-derived calibration data
// the reconstruction depends on: per-type image parameter lookup
// tables, optimized angular cut curves and the energy bias
// correction. The backing store is a single SQLite file managed with
// versioned migrations.
package lookupdb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the lookup database at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring lookup database: %w", err)
	}

	return &DB{db}, nil
}
