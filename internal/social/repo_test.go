package social

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchplan/pkg/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedUsers(t *testing.T, db *sql.DB, names ...string) {
	t.Helper()
	for _, n := range names {
		_, err := db.Exec(`INSERT INTO users (username, email, password_hash) VALUES (?, ? || '@example.com', 'x')`, n, n)
		require.NoError(t, err)
	}
}

func TestRequestAcceptFlow(t *testing.T) {
	db := openTestDB(t)
	seedUsers(t, db, "shruti123", "arjun_dev")
	r := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, r.Request(ctx, "shruti123", "arjun_dev"))

	f, err := r.Get(ctx, "arjun_dev", "shruti123")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "shruti123", f.Username1, "requester is stored first")
	assert.Equal(t, StatusPending, f.Status)

	// the requester can't accept their own request
	ok, err := r.Accept(ctx, "shruti123", "arjun_dev")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Accept(ctx, "arjun_dev", "shruti123")
	require.NoError(t, err)
	assert.True(t, ok)

	f, err = r.Get(ctx, "shruti123", "arjun_dev")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, StatusAccepted, f.Status)
}

func TestGetFindsEitherDirection(t *testing.T) {
	db := openTestDB(t)
	seedUsers(t, db, "shruti123", "arjun_dev", "veeraj")
	r := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, r.Request(ctx, "shruti123", "arjun_dev"))

	f, err := r.Get(ctx, "shruti123", "arjun_dev")
	require.NoError(t, err)
	assert.NotNil(t, f)

	f, err = r.Get(ctx, "arjun_dev", "shruti123")
	require.NoError(t, err)
	assert.NotNil(t, f)

	f, err = r.Get(ctx, "shruti123", "veeraj")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestBlockReplacesExistingFriendship(t *testing.T) {
	db := openTestDB(t)
	seedUsers(t, db, "shruti123", "arjun_dev")
	r := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, r.Request(ctx, "arjun_dev", "shruti123"))
	ok, err := r.Accept(ctx, "shruti123", "arjun_dev")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, r.Block(ctx, "shruti123", "arjun_dev"))

	f, err := r.Get(ctx, "shruti123", "arjun_dev")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, StatusBlocked, f.Status)
	assert.Equal(t, "shruti123", f.Username1, "blocker is stored first")

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM friends`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestOnlyBlockerCanRemoveBlock(t *testing.T) {
	db := openTestDB(t)
	seedUsers(t, db, "shruti123", "arjun_dev")
	r := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, r.Block(ctx, "shruti123", "arjun_dev"))

	removed, err := r.Remove(ctx, "arjun_dev", "shruti123")
	require.NoError(t, err)
	assert.False(t, removed, "blocked user can't clear the block")

	removed, err = r.Remove(ctx, "shruti123", "arjun_dev")
	require.NoError(t, err)
	assert.True(t, removed)

	f, err := r.Get(ctx, "shruti123", "arjun_dev")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestRemoveAcceptedFriendshipFromEitherSide(t *testing.T) {
	db := openTestDB(t)
	seedUsers(t, db, "shruti123", "arjun_dev")
	r := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, r.Request(ctx, "shruti123", "arjun_dev"))
	_, err := r.Accept(ctx, "arjun_dev", "shruti123")
	require.NoError(t, err)

	removed, err := r.Remove(ctx, "arjun_dev", "shruti123")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestListFiltersByStatus(t *testing.T) {
	db := openTestDB(t)
	seedUsers(t, db, "shruti123", "arjun_dev", "veeraj", "omkar_b")
	r := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, r.Request(ctx, "arjun_dev", "shruti123"))
	_, err := r.Accept(ctx, "shruti123", "arjun_dev")
	require.NoError(t, err)
	require.NoError(t, r.Request(ctx, "veeraj", "shruti123"))
	require.NoError(t, r.Request(ctx, "omkar_b", "veeraj"))

	all, total, err := r.List(ctx, "shruti123", "", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	pending, total, err := r.List(ctx, "shruti123", StatusPending, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, "veeraj", pending[0].Username1)
}
