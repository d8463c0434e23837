package kv

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// Dialect selects placeholder syntax and migration dialect for the SQL backend.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// sqliteFull is SQLITE_FULL; extended result codes keep it in the low byte.
const sqliteFull = 13

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema migrations.
func Migrate(db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	gooseDialect := "postgres"
	if dialect == DialectSQLite {
		gooseDialect = "sqlite3"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// SQL stores entries in the client_storage table.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQL wraps an open database. The schema must already be migrated.
func NewSQL(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect}
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT entry_value
		FROM client_storage
		WHERE entry_key = ?
	`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select entry %q: %w", key, err)
	}
	return value, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO client_storage (entry_key, entry_value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (entry_key) DO UPDATE
		SET entry_value = excluded.entry_value, updated_at = CURRENT_TIMESTAMP
	`), key, value)
	if err != nil {
		return fmt.Errorf("upsert entry %q: %w", key, classify(err))
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM client_storage WHERE entry_key = ?
	`), key); err != nil {
		return fmt.Errorf("delete entry %q: %w", key, err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQL) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// classify maps driver-specific out-of-space failures onto ErrQuotaExceeded.
func classify(err error) error {
	if IsQuotaExceeded(err) {
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	}
	return err
}

// IsQuotaExceeded reports whether err is a storage-full failure from any
// supported driver.
func IsQuotaExceeded(err error) bool {
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}

	// Class 53: insufficient resources (disk_full, out_of_memory, ...).
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "53")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "53"
	}

	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return coded.Code()&0xff == sqliteFull
	}

	return false
}
