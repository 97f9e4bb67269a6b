package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	instance *sql.DB
	once     sync.Once
	initErr  error
)

// Config holds database configuration.
// An empty DataDir opens an in-memory database.
type Config struct {
	DataDir    string
	DBName     string
	Extensions []string

	// AllowExternalAccess keeps file and network access open to SQL after
	// startup. Off by default: queries only see the attached database.
	AllowExternalAccess bool
}

// Get returns the singleton DuckDB connection.
func Get(cfg Config) (*sql.DB, error) {
	once.Do(func() {
		instance, initErr = Open(cfg)
	})
	return instance, initErr
}

// lockdown stops SQL from reaching files or the network and freezes the
// configuration so it cannot be reopened by a later SET.
var lockdown = []string{
	"SET GLOBAL enable_external_access = false",
	"SET GLOBAL lock_configuration = true",
}

// Open opens a new DuckDB connection and loads the configured extensions.
// Unless cfg.AllowExternalAccess is set, the connection is locked down once
// the extensions are loaded.
func Open(cfg Config) (*sql.DB, error) {
	dsn := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		dsn = filepath.Join(duckdbDir, cfg.DBName+".duckdb")
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("duckdb ping: %w", err)
	}

	for _, ext := range cfg.Extensions {
		// Extensions need network on first install; the catalog works without them.
		conn.Exec(fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext))
	}

	if cfg.AllowExternalAccess {
		return conn, nil
	}
	for _, stmt := range lockdown {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("duckdb lockdown %q: %w", stmt, err)
		}
	}
	return conn, nil
}

// Close closes the singleton connection.
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}
