// Package migration applies the embedded SQL migrations of the dashboard
// store. Files are named <version>_<name>.<up|down>.sql.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrDirty means an earlier migration failed halfway.
var ErrDirty = errors.New("database is in dirty state, manual intervention required")

type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

type Runner struct {
	db *sql.DB
}

func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

// Run applies every migration newer than the current version.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.ensureSchemaTable(ctx); err != nil {
		return fmt.Errorf("failed to create schema table: %w", err)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	currentVersion, dirty, err := r.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return ErrDirty
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// Down reverts the latest applied migration.
func (r *Runner) Down(ctx context.Context) error {
	if err := r.ensureSchemaTable(ctx); err != nil {
		return fmt.Errorf("failed to create schema table: %w", err)
	}
	current, dirty, err := r.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return ErrDirty
	}
	if current == 0 {
		return nil
	}

	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	i := slices.IndexFunc(migrations, func(m Migration) bool { return m.Version == current })
	if i < 0 || migrations[i].DownSQL == "" {
		return fmt.Errorf("no down migration for version %d", current)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migrations[i].DownSQL); err != nil {
		return fmt.Errorf("failed to revert migration %d: %w", current, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, current); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Runner) ensureSchemaTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			dirty BOOLEAN NOT NULL DEFAULT FALSE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func loadMigrations() ([]Migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, err
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		version, migrationName, direction, err := parseMigrationFilename(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		content, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, err
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: migrationName}
			byVersion[version] = m
		}
		if direction == "up" {
			m.UpSQL = string(content)
		} else {
			m.DownSQL = string(content)
		}
	}

	var migrations []Migration
	for _, m := range byVersion {
		if m.UpSQL != "" {
			migrations = append(migrations, *m)
		}
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })
	return migrations, nil
}

func parseMigrationFilename(filename string) (version int, name, direction string, err error) {
	base, direction, ok := strings.Cut(strings.TrimSuffix(filename, ".sql"), ".")
	if !ok {
		return 0, "", "", fmt.Errorf("invalid migration filename format")
	}
	if direction != "up" && direction != "down" {
		return 0, "", "", fmt.Errorf("invalid direction: %s", direction)
	}

	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", "", fmt.Errorf("invalid migration name format")
	}

	version, err = strconv.Atoi(num)
	if err != nil {
		return 0, "", "", fmt.Errorf("invalid version number: %w", err)
	}
	return version, name, direction, nil
}

// Version returns the latest applied migration and whether it failed halfway.
func (r *Runner) Version(ctx context.Context) (version int, dirty bool, err error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT version, dirty
		FROM schema_migrations
		ORDER BY version DESC
		LIMIT 1
	`)

	err = row.Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, dirty, nil
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (?, TRUE)`, m.Version); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE schema_migrations SET dirty = FALSE WHERE version = ?`, m.Version); err != nil {
		return err
	}
	return tx.Commit()
}

// Force clears the dirty flag of version after a manual repair.
func (r *Runner) Force(ctx context.Context, version int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE schema_migrations SET dirty = FALSE WHERE version = ?`, version)
	return err
}
