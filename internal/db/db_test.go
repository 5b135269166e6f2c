package db_test

import (
	"path/filepath"
	"testing"

	"github.com/guildsnap/guildsnap/internal/db"
	"github.com/guildsnap/guildsnap/internal/testutil"
)

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "catalog.db")
	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	if database.Path() != path {
		t.Errorf("Path = %q, want %q", database.Path(), path)
	}
}

func TestMigrateCreatesSchema(t *testing.T) {
	database, _ := testutil.TempDB(t)

	var name string
	err := database.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'snapshots'",
	).Scan(&name)
	if err != nil {
		t.Fatalf("snapshots table missing: %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var applied int
	if err := database.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}
}
