// Package database opens the SQLite file that backs the entity state
// journal and keeps its schema current.
//
// The connection runs in WAL mode with a busy timeout and a single open
// connection, which suits one writer (the journal) with occasional readers
// (the history endpoint). The file is created with mode 0600.
//
// Usage:
//
//	db, err := database.Open(database.ConfigFrom(cfg.Database))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are pairs of files named YYYYMMDD_HHMMSS_description.up.sql
// and .down.sql, read from the Migrations filesystem. Schema changes are
// additive: new columns are nullable or carry a default.
package database
