package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 2

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createDocumentsTable(tx); err != nil {
			return err
		}
		if err := createDocumentFilesTable(tx); err != nil {
			return err
		}
		if err := createParseFailuresTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Debug("Cache schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("cache schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running cache migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)

	if version < 1 {
		// A file without a schema_version table was never initialized.
		return db.initializeSchema()
	}
	if version < 2 {
		if err := db.migrateToV2(); err != nil {
			return err
		}
	}

	return nil
}

// migrateToV2 adds the parse failure table.
func (db *DB) migrateToV2() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createParseFailuresTable(tx); err != nil {
			return err
		}
		return setSchemaVersion(tx, 2)
	})
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("DELETE FROM schema_version")
	if err != nil {
		return err
	}
	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createSchemaVersionTable creates the schema_version tracking table
func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createDocumentsTable creates the documents table. blob holds the
// zstd-compressed JSON document; size is its uncompressed length.
func createDocumentsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			header TEXT NOT NULL,
			provider TEXT NOT NULL,
			args_json TEXT NOT NULL,
			run_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			expires_at TEXT,
			blob BLOB NOT NULL,
			size INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_documents_header ON documents(header)",
		"CREATE INDEX IF NOT EXISTS idx_documents_expires_at ON documents(expires_at)",
	}

	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// createDocumentFilesTable creates the document_files table: every file a
// cached document was built from, with its checksum at extraction time.
func createDocumentFilesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS document_files (
			key TEXT NOT NULL,
			path TEXT NOT NULL,
			checksum TEXT NOT NULL,

			PRIMARY KEY (key, path),
			FOREIGN KEY (key) REFERENCES documents(key) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create document_files table: %w", err)
	}

	if _, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_document_files_path ON document_files(path)"); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// createParseFailuresTable creates the parse_failures table
func createParseFailuresTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS parse_failures (
			key TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			message TEXT NOT NULL,
			checksum TEXT NOT NULL,
			created_at TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create parse_failures table: %w", err)
	}
	return nil
}
