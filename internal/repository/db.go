package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/neo44hd/docarchive/internal/common"
)

// Dialect selects placeholder syntax for the SQL stores.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// schemaDDL is deliberately portable: TEXT everywhere (timestamps as
// RFC3339, structured fields as JSON) and INTEGER for booleans, so the same
// DDL works on SQLite and Postgres.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
	id                    TEXT PRIMARY KEY,
	file_url              TEXT NOT NULL,
	content_type          TEXT NOT NULL,
	processing_status     TEXT NOT NULL,
	ocr_result            TEXT,
	extracted_record      TEXT,
	validation            TEXT,
	provider_link         TEXT,
	manually_edited       INTEGER NOT NULL DEFAULT 0,
	error_message         TEXT,
	processing_started_at TEXT,
	created_at            TEXT NOT NULL,
	updated_at            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (processing_status);

CREATE TABLE IF NOT EXISTS providers (
	id                    TEXT PRIMARY KEY,
	name                  TEXT NOT NULL DEFAULT '',
	cif                   TEXT NOT NULL DEFAULT '',
	address               TEXT NOT NULL DEFAULT '',
	phone                 TEXT NOT NULL DEFAULT '',
	email                 TEXT NOT NULL DEFAULT '',
	auto_created          INTEGER NOT NULL DEFAULT 0,
	created_from_document TEXT,
	created_at            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_providers_cif ON providers (cif);
CREATE INDEX IF NOT EXISTS idx_providers_name ON providers (name);
`

// OpenSQLite opens (or creates) an embedded store. Use ":memory:" for the
// throwaway in-memory mode.
func OpenSQLite(path string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "open sqlite")
	}
	// modernc sqlite is not safe for concurrent writers over one connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "apply schema")
	}
	logger.Info("sqlite store ready", "path", path)
	return db, nil
}

// OpenPostgres creates a pgx pool, wraps it as *sql.DB and applies the
// schema. The pool is returned alongside so the caller can close both.
func OpenPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*sql.DB, *pgxpool.Pool, error) {
	logger.Info("connecting to database", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, common.WrapError(err, "parse dsn")
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "docarchive"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, common.WrapError(err, "connect postgres")
	}

	db := stdlib.OpenDBFromPool(pool)
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		pool.Close()
		return nil, nil, common.WrapError(err, "apply schema")
	}

	logger.Info("successfully connected to database")
	return db, pool, nil
}

// rebind rewrites ? placeholders to $n for Postgres. Queries are written
// with ? so both stores share them.
func rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var errNotFound = fmt.Errorf("row: %w", common.ErrNotFound)
