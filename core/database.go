package core

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	dbFile string
	conn   *sql.DB
}

// NewDatabase prepares a database at dbFile. The parent directory is created
// on Connect.
func NewDatabase(dbFile string) *Database {
	return &Database{
		dbFile: dbFile,
	}
}

func (db *Database) Connect(ctx context.Context) error {
	if dir := filepath.Dir(db.dbFile); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", db.dbFile+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	// One writer keeps the token and user rows consistent.
	conn.SetMaxOpenConns(1)
	db.conn = conn

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open database %s: %w", db.dbFile, err)
	}

	if err := db.initDatabase(ctx); err != nil {
		return err
	}

	return db.checkSchema(ctx)
}

func (db *Database) initDatabase(ctx context.Context) error {
	query := `
    CREATE TABLE IF NOT EXISTS storage (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`
	_, err := db.conn.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

func (db *Database) checkSchema(ctx context.Context) error {
	rows, err := db.conn.QueryContext(ctx, "PRAGMA table_info(storage)")
	if err != nil {
		return fmt.Errorf("failed to fetch table info: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("failed to scan table info: %w", err)
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read table info: %w", err)
	}

	if !columns["updated_at"] {
		_, err := db.conn.ExecContext(ctx, `
        ALTER TABLE storage
        ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''
        `)
		if err != nil {
			return fmt.Errorf("failed to add updated_at column: %w", err)
		}
	}

	for _, col := range []string{"key", "value"} {
		if !columns[col] {
			return fmt.Errorf("storage table is missing column %q", col)
		}
	}
	return nil
}

// Conn exposes the underlying pool. It is nil before Connect.
func (db *Database) Conn() *sql.DB {
	return db.conn
}

func (db *Database) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}
