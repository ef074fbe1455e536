// Package sqlstore implements a bytemap.ByteMap over a SQL table,
// adapted from the teacher's db/pgx/sql.go. The teacher's Storage kept
// the fixed mt_nodes/mt_roots schema of a single Merkle tree instance
// (keyed by mt_id); igit-go has no such fixed shape, so the schema
// collapses to one flat key/value table per store:
//
//	CREATE TABLE igit_objects (key TEXT PRIMARY KEY, value BYTEA NOT NULL)
//
// Access goes through the same minimal DB interface the teacher
// declared (Exec/Query/QueryRow), which both *pgx.Conn/Pool and a
// *sqlx.DB (via its database/sql-compatible methods) satisfy, so this
// backend works unmodified against Postgres (jackc/pgx/v4) or any
// database jmoiron/sqlx can open.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"

	"github.com/jmosbacher/igit-go/bytemap"
	"github.com/jmosbacher/igit-go/igiterr"
)

// DB is the minimal surface sqlstore needs, satisfied by *pgx.Conn,
// *pgxpool.Pool, or a thin wrapper around *sqlx.DB.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const (
	upsertStmt   = `INSERT INTO igit_objects (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = $2`
	selectStmt   = `SELECT value FROM igit_objects WHERE key = $1`
	deleteStmt   = `DELETE FROM igit_objects WHERE key = $1`
	existsStmt   = `SELECT 1 FROM igit_objects WHERE key = $1`
	listKeysStmt = `SELECT key FROM igit_objects ORDER BY key`
)

// wrapErr reports a cancelled/timed-out ctx as igiterr.Cancelled rather
// than igiterr.BackendIO (spec §5: "cancellation surfaces as
// context.Canceled/context.DeadlineExceeded, wrapped as
// igiterr.Cancelled") — the one backend in this tree where ctx is
// actually forwarded into a call that can block long enough to be worth
// cancelling (pgx respects ctx internally; the in-memory and embedded-kv
// backends return too fast for this distinction to matter, matching the
// teacher, which threads context.Context through every Storage method
// but never branches on ctx.Err() either).
func wrapErr(ctx context.Context, key string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return igiterr.Cancelled(key, err)
	}
	if ctx.Err() != nil {
		return igiterr.Cancelled(key, ctx.Err())
	}
	return igiterr.BackendIO(key, err)
}

// Storage is a bytemap.ByteMap backed by a SQL table.
type Storage struct {
	db DB
}

// New returns a Storage using db as its connection. The igit_objects
// table is assumed to already exist (see the package doc for its DDL).
func New(db DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	row := s.db.QueryRow(ctx, selectStmt, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, igiterr.NotFound(key)
		}
		return nil, wrapErr(ctx, key, err)
	}
	return value, nil
}

func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.Exec(ctx, upsertStmt, key, value); err != nil {
		return wrapErr(ctx, key, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, deleteStmt, key); err != nil {
		return wrapErr(ctx, key, err)
	}
	return nil
}

func (s *Storage) Contains(ctx context.Context, key string) (bool, error) {
	var one int
	row := s.db.QueryRow(ctx, existsStmt, key)
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, wrapErr(ctx, key, err)
	}
	return true, nil
}

func (s *Storage) IterKeys(ctx context.Context) (bytemap.KeyIterator, error) {
	rows, err := s.db.Query(ctx, listKeysStmt)
	if err != nil {
		return nil, wrapErr(ctx, "", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, wrapErr(ctx, "", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(ctx, "", err)
	}
	return bytemap.NewSliceIterator(keys), nil
}
