// Package db is a SQL implementation of the tabular record store. Each table
// row is stored as a JSON array of cells so the column layout stays owned by
// the records schema, not by SQL migrations.
package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

type dialect int

const (
	sqliteDialect dialect = iota
	postgresDialect
)

type DB struct {
	conn    *sql.DB
	dialect dialect
	log     *slog.Logger
}

// Open opens (or creates) a SQLite database file.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: ":memory:" databases are per connection, and SQLite
	// serialises writers anyway.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	return migrate(conn, sqliteDialect)
}

// OpenPostgres connects to a Postgres server.
func OpenPostgres(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return migrate(conn, postgresDialect)
}

// IsPostgresDSN reports whether dsn is a postgres URL or key=value string.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func migrate(conn *sql.DB, d dialect) (*DB, error) {
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	name := "sqlite"
	if d == postgresDialect {
		name = "postgres"
	}
	return &DB{conn: conn, dialect: d, log: slog.Default().With("component", "db", "driver", name)}, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// rebind rewrites ? placeholders to $n for Postgres.
func (d *DB) rebind(query string) string {
	if d.dialect != postgresDialect {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
