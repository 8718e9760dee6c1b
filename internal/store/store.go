// Package store provides SQLite-backed metadata persistence for parsed
// documents, their extracted tables, and parsing history.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kca-ai/document-parser/pkg/logger"
)

// Store wraps the metadata database.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

// Open opens the SQLite database at dbPath, enables WAL mode and foreign
// keys, and creates all required tables idempotently.
func Open(dbPath string, log logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := configurePragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrateTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

func configurePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to execute %s: %w", p, err)
		}
	}
	return nil
}

func createTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			filename         TEXT NOT NULL UNIQUE,
			original_path    TEXT NOT NULL,
			file_size        INTEGER NOT NULL,
			file_extension   TEXT NOT NULL,
			total_pages      INTEGER DEFAULT 0,
			parsing_status   TEXT NOT NULL DEFAULT 'pending',
			parsing_strategy TEXT DEFAULT '',
			output_folder    TEXT DEFAULT '',
			content_md_path  TEXT DEFAULT '',
			manifest_path    TEXT DEFAULT '',
			created_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_parsed_at   DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER NOT NULL,
			chunk_index INTEGER NOT NULL,
			chunk_text  TEXT NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS tables (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id      INTEGER NOT NULL,
			table_id         TEXT NOT NULL,
			table_index      INTEGER NOT NULL,
			page             INTEGER DEFAULT 0,
			caption          TEXT DEFAULT '',
			rows             INTEGER NOT NULL,
			cols             INTEGER NOT NULL,
			has_merged_cells INTEGER NOT NULL DEFAULT 0,
			is_complex       INTEGER NOT NULL DEFAULT 0,
			summary          TEXT,
			json_path        TEXT DEFAULT '',
			parsing_method   TEXT DEFAULT '',
			created_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS parsing_history (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id      INTEGER NOT NULL,
			parsing_status   TEXT NOT NULL,
			parsing_strategy TEXT NOT NULL,
			total_chunks     INTEGER DEFAULT 0,
			total_tables     INTEGER DEFAULT 0,
			markdown_tables  INTEGER DEFAULT 0,
			json_tables      INTEGER DEFAULT 0,
			error_message    TEXT DEFAULT '',
			duration_seconds REAL DEFAULT 0,
			created_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS pictures (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER NOT NULL,
			picture_id  TEXT NOT NULL,
			page        INTEGER DEFAULT 0,
			width       INTEGER DEFAULT 0,
			height      INTEGER DEFAULT 0,
			image_path  TEXT DEFAULT '',
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS dify_config (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			api_key    TEXT NOT NULL,
			base_url   TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS dify_upload_logs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id INTEGER,
			dataset_id  TEXT NOT NULL,
			batch_id    TEXT DEFAULT '',
			status      TEXT NOT NULL,
			error       TEXT DEFAULT '',
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, ddl := range tables {
		if _, err := tx.Exec(ddl); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return tx.Commit()
}

// migrateTables adds missing columns to existing tables for backward
// compatibility with databases created by older releases.
func migrateTables(db *sql.DB) error {
	migrations := []struct {
		table  string
		column string
		ddl    string
	}{
		{"tables", "summary", "ALTER TABLE tables ADD COLUMN summary TEXT"},
		{"tables", "parsing_method", "ALTER TABLE tables ADD COLUMN parsing_method TEXT DEFAULT ''"},
		{"documents", "manifest_path", "ALTER TABLE documents ADD COLUMN manifest_path TEXT DEFAULT ''"},
	}

	for _, m := range migrations {
		if !columnExists(db, m.table, m.column) {
			if _, err := db.Exec(m.ddl); err != nil {
				return fmt.Errorf("migration failed (%s.%s): %w", m.table, m.column, err)
			}
		}
	}
	return nil
}

func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue *string
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}
