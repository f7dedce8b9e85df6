package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecTxCommitsOnSuccess(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "test.db")}
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(db))

	_, err = ExecTx(context.Background(), db,
		`INSERT INTO genres (genre_id, name) VALUES (?, ?)`, "G001", "Crime")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM genres`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestExecTxRollsBackOnStatementFailure(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "test.db")}
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(db))

	// CHECK constraint on media_type rejects the row
	_, err = ExecTx(context.Background(), db,
		`INSERT INTO media (media_id, title, media_type) VALUES (?, ?, ?)`,
		"M001", "Broken", "Documentary")
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM media`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestManagerReusesLiveHandle(t *testing.T) {
	m := NewManager(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	t.Cleanup(func() { m.Close() })
	ctx := context.Background()

	first, err := m.Acquire(ctx)
	require.NoError(t, err)

	second, err := m.Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestManagerReopensStaleHandle(t *testing.T) {
	m := NewManager(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	t.Cleanup(func() { m.Close() })
	ctx := context.Background()

	first, err := m.Acquire(ctx)
	require.NoError(t, err)

	// simulate a dropped connection
	require.NoError(t, first.Close())

	second, err := m.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, second.Ping())
}
