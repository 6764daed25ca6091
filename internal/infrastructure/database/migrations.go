package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// Migrations is the filesystem holding the migration files. The
// migrations package sets it from an embedded directory.
var Migrations fs.FS

// MigrationsDir is the directory inside Migrations that holds the files.
var MigrationsDir = "."

// Migration is one schema step.
type Migration struct {
	// Version is the YYYYMMDD_HHMMSS filename prefix.
	Version string
	Name    string
	Up      string
	Down    string
}

// Migrate applies every pending migration, oldest first.
//
// Each migration commits on its own. A failure leaves earlier ones in
// place, and the next call resumes from the one that failed.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	_, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		return err
	}

	for _, m := range pending {
		err := db.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.Up); err != nil {
				return fmt.Errorf("executing SQL: %w", err)
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
				m.Version, time.Now().UTC().Format(time.RFC3339),
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("applying migration %s (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// MigrateDown rolls back the most recently applied migration.
func (db *DB) MigrateDown(ctx context.Context) error {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return nil
	}
	latest := applied[len(applied)-1]

	all, err := loadMigrations()
	if err != nil {
		return err
	}
	var m *Migration
	for i := range all {
		if all[i].Version == latest {
			m = &all[i]
			break
		}
	}
	switch {
	case m == nil:
		return fmt.Errorf("migration %s not found", latest)
	case m.Down == "":
		return fmt.Errorf("migration %s has no down SQL", latest)
	}

	return db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, m.Down); err != nil {
			return fmt.Errorf("executing down SQL: %w", err)
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", m.Version)
		return err
	})
}

// MigrationStatus returns the applied versions and the pending migrations.
func (db *DB) MigrationStatus(ctx context.Context) (applied []string, pending []Migration, err error) {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return nil, nil, err
	}
	applied, err = db.appliedVersions(ctx)
	if err != nil {
		return nil, nil, err
	}
	all, err := loadMigrations()
	if err != nil {
		return nil, nil, err
	}

	done := make(map[string]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}
	for _, m := range all {
		if _, ok := done[m.Version]; !ok {
			pending = append(pending, m)
		}
	}
	return applied, pending, nil
}

// SchemaVersion returns the newest applied version, or "" for an empty schema.
func (db *DB) SchemaVersion(ctx context.Context) (string, error) {
	applied, _, err := db.MigrationStatus(ctx)
	if err != nil || len(applied) == 0 {
		return "", err
	}
	return applied[len(applied)-1], nil
}

func (db *DB) ensureMigrationsTable(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}
	return nil
}

func (db *DB) appliedVersions(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("querying migrations: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// loadMigrations reads every up/down pair from Migrations, sorted by
// version. Files that do not follow the naming scheme are ignored.
func loadMigrations() ([]Migration, error) {
	if Migrations == nil {
		return nil, nil
	}
	names, err := fs.Glob(Migrations, path.Join(MigrationsDir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	byVersion := make(map[string]*Migration)
	for _, file := range names {
		version, name, up, ok := parseMigrationFilename(path.Base(file))
		if !ok {
			continue
		}
		body, err := fs.ReadFile(Migrations, file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if up {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %s has no up SQL", m.Version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// parseMigrationFilename splits "20260301_120000_entity_state_history.up.sql"
// into its version, name and direction.
func parseMigrationFilename(file string) (version, name string, up, ok bool) {
	base, found := strings.CutSuffix(file, ".sql")
	if !found {
		return "", "", false, false
	}
	if b, isUp := strings.CutSuffix(base, ".up"); isUp {
		base, up = b, true
	} else if b, isDown := strings.CutSuffix(base, ".down"); isDown {
		base = b
	} else {
		return "", "", false, false
	}

	date, rest, found := strings.Cut(base, "_")
	if !found {
		return "", "", false, false
	}
	clock, name, _ := strings.Cut(rest, "_")
	if date == "" || clock == "" {
		return "", "", false, false
	}
	return date + "_" + clock, name, up, true
}
