package sqlstore

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/jmosbacher/igit-go/bytemap"
	"github.com/jmosbacher/igit-go/igiterr"
)

// SqlxStorage is a bytemap.ByteMap over the same igit_objects table as
// Storage, but driven through jmoiron/sqlx instead of pgx — adapted
// from the teacher's db/sql/sql.go, which used *sqlx.DB directly rather
// than through pgx's narrower DB interface. Used for backends pgx
// doesn't support (sqlite, mysql) where sqlx's driver-agnostic surface
// is what's available.
type SqlxStorage struct {
	db *sqlx.DB
}

// NewSqlx returns a SqlxStorage using db as its connection.
func NewSqlx(db *sqlx.DB) *SqlxStorage {
	return &SqlxStorage{db: db}
}

func (s *SqlxStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, s.db.Rebind(`SELECT value FROM igit_objects WHERE key = ?`), key)
	if err == sql.ErrNoRows {
		return nil, igiterr.NotFound(key)
	}
	if err != nil {
		return nil, wrapErr(ctx, key, err)
	}
	return value, nil
}

func (s *SqlxStorage) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO igit_objects (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value`),
		key, value)
	if err != nil {
		return wrapErr(ctx, key, err)
	}
	return nil
}

func (s *SqlxStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM igit_objects WHERE key = ?`), key)
	if err != nil {
		return wrapErr(ctx, key, err)
	}
	return nil
}

func (s *SqlxStorage) Contains(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.GetContext(ctx, &one, s.db.Rebind(`SELECT 1 FROM igit_objects WHERE key = ?`), key)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, wrapErr(ctx, key, err)
	}
	return true, nil
}

func (s *SqlxStorage) IterKeys(ctx context.Context) (bytemap.KeyIterator, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, `SELECT key FROM igit_objects ORDER BY key`); err != nil {
		return nil, wrapErr(ctx, "", err)
	}
	return bytemap.NewSliceIterator(keys), nil
}

// Close closes the underlying *sqlx.DB.
func (s *SqlxStorage) Close() error {
	return s.db.Close()
}
