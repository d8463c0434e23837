package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func TestSQLGetPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE entry_key = $1")).
		WithArgs("likedList").
		WillReturnRows(sqlmock.NewRows([]string{"entry_value"}).AddRow(`[]`))

	got, err := NewSQL(db, DialectPostgres).Get(context.Background(), "likedList")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "[]" {
		t.Fatalf("unexpected value %q", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT entry_value")).
		WithArgs("watchlist").
		WillReturnError(sql.ErrNoRows)

	_, err = NewSQL(db, DialectSQLite).Get(context.Background(), "watchlist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLSetUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO client_storage \(entry_key, entry_value, updated_at\)\s+VALUES \(\$1, \$2, CURRENT_TIMESTAMP\)\s+ON CONFLICT \(entry_key\) DO UPDATE`).
		WithArgs("watchedList", `[{"id":27205}]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewSQL(db, DialectPostgres).Set(context.Background(), "watchedList", `[{"id":27205}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLSetDiskFull(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO client_storage")).
		WithArgs("shortFilms", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "53100", Message: "could not extend file"})

	err = NewSQL(db, DialectPostgres).Set(context.Background(), "shortFilms", "[]")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "53100" {
		t.Fatalf("expected driver error to stay reachable, got %v", err)
	}
}

type codedError int

func (e codedError) Error() string { return fmt.Sprintf("sqlite error %d", int(e)) }
func (e codedError) Code() int     { return int(e) }

func TestIsQuotaExceeded(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "pgx disk full", err: &pgconn.PgError{Code: "53100"}, want: true},
		{name: "pgx unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "pq out of memory", err: &pq.Error{Code: "53200"}, want: true},
		{name: "pq syntax", err: &pq.Error{Code: "42601"}, want: false},
		{name: "sqlite full", err: codedError(13), want: true},
		{name: "sqlite busy", err: codedError(5), want: false},
		{name: "wrapped", err: fmt.Errorf("write: %w", codedError(13)), want: true},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsQuotaExceeded(tt.err); got != tt.want {
				t.Fatalf("IsQuotaExceeded(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	pg := NewSQL(nil, DialectPostgres)
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("unexpected rebind %q", got)
	}

	lite := NewSQL(nil, DialectSQLite)
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite query should be unchanged, got %q", got)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	// each pooled connection would otherwise get its own empty database
	db.SetMaxOpenConns(1)

	if err := Migrate(db, DialectSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// migrations are idempotent
	if err := Migrate(db, DialectSQLite); err != nil {
		t.Fatalf("Migrate again: %v", err)
	}

	exercise(t, NewSQL(db, DialectSQLite))
}
