package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/lib/pq"
)

func TestParseMigrationName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename    string
		wantVersion int
		wantName    string
		wantErr     bool
	}{
		{filename: "migrations/001_init.sql", wantVersion: 1, wantName: "init"},
		{filename: "012_add_mood_index.sql", wantVersion: 12, wantName: "add_mood_index"},
		{filename: "init.sql", wantErr: true},
		{filename: "abc_init.sql", wantErr: true},
		{filename: "000_zero.sql", wantErr: true},
		{filename: "003_.sql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()

			version, name, err := parseMigrationName(tt.filename)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseMigrationName(%q) should fail", tt.filename)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMigrationName(%q) failed: %v", tt.filename, err)
			}
			if version != tt.wantVersion || name != tt.wantName {
				t.Errorf("parseMigrationName(%q) = %d, %q; want %d, %q", tt.filename, version, name, tt.wantVersion, tt.wantName)
			}
		})
	}
}

func TestReadMigrations(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"migrations/002_second.sql": {Data: []byte("SELECT 2;")},
		"migrations/001_first.sql":  {Data: []byte("SELECT 1;")},
		"migrations/README.md":      {Data: []byte("ignored")},
	}

	migrations, err := readMigrations(fsys)
	if err != nil {
		t.Fatalf("readMigrations() failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("readMigrations() returned %d migrations, want 2", len(migrations))
	}
	if migrations[0].Name != "first" || migrations[1].Name != "second" {
		t.Errorf("migrations out of order: %+v", migrations)
	}

	fsys["migrations/002_duplicate.sql"] = &fstest.MapFile{Data: []byte("SELECT 3;")}
	if _, err := readMigrations(fsys); err == nil {
		t.Error("readMigrations() should reject duplicate versions")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	migrations, err := readMigrations(migrationFiles)
	if err != nil {
		t.Fatalf("readMigrations() failed: %v", err)
	}
	if len(migrations) == 0 || migrations[0].Version != 1 {
		t.Fatalf("expected embedded migrations starting at version 1, got %+v", migrations)
	}
	for _, table := range []string{"tasks", "goals", "mood_entries"} {
		if !strings.Contains(migrations[0].SQL, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("initial migration does not create %s", table)
		}
	}
}

func TestTranslateError(t *testing.T) {
	t.Parallel()

	if err := translateError(nil, "op"); err != nil {
		t.Errorf("translateError(nil) = %v, want nil", err)
	}
	if err := translateError(sql.ErrNoRows, "op"); !errors.Is(err, ErrNotFound) {
		t.Errorf("translateError(ErrNoRows) = %v, want ErrNotFound", err)
	}
	dup := fmt.Errorf("insert: %w", &pq.Error{Code: uniqueViolation})
	if err := translateError(dup, "op"); !errors.Is(err, ErrConflict) {
		t.Errorf("translateError(unique violation) = %v, want ErrConflict", err)
	}
	other := errors.New("connection refused")
	if err := translateError(other, "op"); !errors.Is(err, other) {
		t.Errorf("translateError() should wrap unknown errors, got %v", err)
	}
}
