package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	return n == 1
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		file      string
		version   int
		name      string
		direction string
		wantErr   bool
	}{
		{file: "0001_dashboards.up.sql", version: 1, name: "dashboards", direction: "up"},
		{file: "0012_add_tags_index.down.sql", version: 12, name: "add_tags_index", direction: "down"},
		{file: "0001_dashboards.sideways.sql", wantErr: true},
		{file: "dashboards.up.sql", wantErr: true},
		{file: "x_dashboards.up.sql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			version, name, direction, err := parseMigrationFilename(tt.file)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected an error for %s", tt.file)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if version != tt.version || name != tt.name || direction != tt.direction {
				t.Errorf("Expected %d %s %s, got %d %s %s", tt.version, tt.name, tt.direction, version, name, direction)
			}
		})
	}
}

func TestRunner_RunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := NewRunner(db)

	for range 2 {
		if err := r.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	}

	version, dirty, err := r.Version(ctx)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Expected clean version 1, got %d dirty=%v", version, dirty)
	}
	for _, table := range []string{"dashboards", "dashboard_versions"} {
		if !tableExists(t, db, table) {
			t.Errorf("Expected table %s to exist", table)
		}
	}
}

func TestRunner_Down(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := NewRunner(db)

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := r.Down(ctx); err != nil {
		t.Fatalf("Down failed: %v", err)
	}
	if tableExists(t, db, "dashboards") {
		t.Errorf("Expected dashboards table dropped")
	}
	if version, _, _ := r.Version(ctx); version != 0 {
		t.Errorf("Expected version 0, got %d", version)
	}
	if err := r.Down(ctx); err != nil {
		t.Errorf("Expected Down on an empty database to be a no-op, got %v", err)
	}
}

func TestRunner_RefusesDirtyDatabase(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := NewRunner(db)

	if err := r.ensureSchemaTable(ctx); err != nil {
		t.Fatalf("ensureSchemaTable failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO schema_migrations (version, dirty) VALUES (1, TRUE)`); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := r.Run(ctx); err != ErrDirty {
		t.Fatalf("Expected ErrDirty, got %v", err)
	}
	if err := r.Force(ctx, 1); err != nil {
		t.Fatalf("Force failed: %v", err)
	}
	if err := r.Run(ctx); err != nil {
		t.Errorf("Expected Run to succeed after Force, got %v", err)
	}
}
