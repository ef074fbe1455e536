package sqlstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmosbacher/igit-go/bytemap"
	"github.com/jmosbacher/igit-go/bytemap/bytemaptest"
	"github.com/jmosbacher/igit-go/igiterr"
)

// These tests only run against a live Postgres, pointed to by
// IGIT_TEST_DATABASE_URL, and are skipped otherwise — there is no
// in-process Postgres to spin up the way bytemap/memory can.
type builder struct{}

func (builder) Build(t *testing.T) bytemap.ByteMap {
	dsn := os.Getenv("IGIT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("IGIT_TEST_DATABASE_URL not set")
	}
	conn, err := pgx.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	_, err = conn.Exec(context.Background(), `CREATE TABLE IF NOT EXISTS igit_objects (key TEXT PRIMARY KEY, value BYTEA NOT NULL)`)
	require.NoError(t, err)
	_, err = conn.Exec(context.Background(), `TRUNCATE igit_objects`)
	require.NoError(t, err)

	return New(conn)
}

func TestSqlStorage(t *testing.T) {
	bytemaptest.Run(t, builder{})
}

func TestWrapErrReportsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := wrapErr(ctx, "k", context.Canceled)
	assert.True(t, errors.Is(err, igiterr.ErrCancelled))

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel2()
	time.Sleep(time.Millisecond)
	err2 := wrapErr(ctx2, "k", errors.New("driver: deadline exceeded"))
	assert.True(t, errors.Is(err2, igiterr.ErrCancelled))
}

func TestWrapErrFallsBackToBackendIO(t *testing.T) {
	err := wrapErr(context.Background(), "k", errors.New("connection refused"))
	assert.True(t, errors.Is(err, igiterr.ErrBackendIO))
}
