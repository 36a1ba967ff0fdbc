package database

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DB holds the process-local working set. The default path is an in-memory
// database, so nothing survives a restart.
type DB struct {
	conn *sql.DB
}

type Config struct {
	SQLitePath string
}

const MemoryPath = "file::memory:"

func NewDB(config Config) (*DB, error) {
	path := config.SQLitePath
	if path == "" {
		path = MemoryPath
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := NewMigrator(conn).Run(migrationFiles, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}
