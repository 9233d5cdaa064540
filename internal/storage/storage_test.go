package storage

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	tmpDir := t.TempDir()

	logger := slog.New(slog.DiscardHandler)

	db, err := Open(tmpDir, logger)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db, tmpDir
}

func TestDatabaseInitialization(t *testing.T) {
	db, tmpDir := setupTestDB(t)

	dbPath := filepath.Join(tmpDir, ".objcmeta", "cache.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("Database file was not created at %s", dbPath)
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %s, want %s", db.Path(), dbPath)
	}

	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, currentSchemaVersion)
	}

	for _, table := range []string{"documents", "document_files", "parse_failures"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	db, err := Open(tmpDir, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := db.Exec("INSERT INTO documents (key, header, provider, args_json, run_id, created_at, blob, size) VALUES ('k', 'h', 'p', '[]', 'r', '2025-01-01T00:00:00Z', x'00', 1)"); err != nil {
		t.Fatalf("insert error = %v", err)
	}
	_ = db.Close()

	db, err = Open(tmpDir, logger)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("documents after reopen = %d, want 1", count)
	}
}

func TestMigrateFromV1(t *testing.T) {
	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)
	path := filepath.Join(tmpDir, "cache.db")

	db, err := OpenPath(path, logger)
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	err = db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DROP TABLE parse_failures"); err != nil {
			return err
		}
		return setSchemaVersion(tx, 1)
	})
	if err != nil {
		t.Fatalf("downgrade error = %v", err)
	}
	_ = db.Close()

	db, err = OpenPath(path, logger)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 {
		t.Errorf("schema version = %d, want 2", version)
	}
	var name string
	if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='parse_failures'").Scan(&name); err != nil {
		t.Errorf("parse_failures missing after migration: %v", err)
	}
}

func TestNewerSchemaRejected(t *testing.T) {
	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)
	path := filepath.Join(tmpDir, "cache.db")

	db, err := OpenPath(path, logger)
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	if err := db.WithTx(func(tx *sql.Tx) error { return setSchemaVersion(tx, currentSchemaVersion+1) }); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	if db, err := OpenPath(path, logger); err == nil {
		db.Close()
		t.Error("OpenPath() error = nil for a newer schema")
	}
}

func TestWithTxRollback(t *testing.T) {
	db, _ := setupTestDB(t)

	err := db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO parse_failures VALUES ('k', 'PARSE_FAILED', 'm', 'c', 'a', 'b')"); err != nil {
			return err
		}
		return sql.ErrTxDone
	})
	if err != sql.ErrTxDone {
		t.Fatalf("WithTx() error = %v, want %v", err, sql.ErrTxDone)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM parse_failures").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("rows after rollback = %d, want 0", count)
	}
}

func TestOpenPath_NilLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	db, err := OpenPath(path, nil)
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	defer db.Close()

	if db.logger == nil {
		t.Fatal("logger = nil, want a discard logger")
	}
	db.logger.Info("discarded")
	if db.Path() != path {
		t.Errorf("Path() = %s, want %s", db.Path(), path)
	}
}
