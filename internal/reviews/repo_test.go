package reviews

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

func seedReviewFixture(t *testing.T, db *sql.DB) {
	t.Helper()

	for _, u := range []string{"shruti123", "arjun_dev"} {
		_, err := db.Exec(`INSERT INTO users (username, email, password_hash) VALUES (?, ? || '@example.com', 'x')`, u, u)
		require.NoError(t, err)
	}
	_, err := db.Exec(`INSERT INTO media (media_id, title, media_type) VALUES ('M001', 'Andhadhun', 'Movie')`)
	require.NoError(t, err)
}

func mediaAverage(t *testing.T, db *sql.DB, mediaID string) *float64 {
	t.Helper()
	var avg sql.NullFloat64
	require.NoError(t, db.QueryRow(`SELECT average_rating FROM media WHERE media_id = ?`, mediaID).Scan(&avg))
	if !avg.Valid {
		return nil
	}
	return &avg.Float64
}

func TestCreateRefreshesAverage(t *testing.T) {
	db := openTestDB(t)
	seedReviewFixture(t, db)
	r := NewRepo(db)
	ctx := context.Background()

	first, err := r.Create(ctx, "shruti123", "M001", 8, "taut thriller")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 8, first.Rating)
	assert.Equal(t, "taut thriller", first.Text)
	assert.False(t, first.CreatedAt.IsZero())

	avg := mediaAverage(t, db, "M001")
	require.NotNil(t, avg)
	assert.InDelta(t, 8.0, *avg, 0.001)

	_, err = r.Create(ctx, "arjun_dev", "M001", 6, "")
	require.NoError(t, err)

	avg = mediaAverage(t, db, "M001")
	require.NotNil(t, avg)
	assert.InDelta(t, 7.0, *avg, 0.001)
}

func TestUpdateOnlyByAuthor(t *testing.T) {
	db := openTestDB(t)
	seedReviewFixture(t, db)
	r := NewRepo(db)
	ctx := context.Background()

	created, err := r.Create(ctx, "shruti123", "M001", 8, "good")
	require.NoError(t, err)

	// someone else's username matches no row
	missing, err := r.Update(ctx, created.ID, "arjun_dev", 1, "mine now")
	require.NoError(t, err)
	assert.Nil(t, missing)

	updated, err := r.Update(ctx, created.ID, "shruti123", 10, "rewatched, even better")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 10, updated.Rating)
	assert.Equal(t, "rewatched, even better", updated.Text)

	avg := mediaAverage(t, db, "M001")
	require.NotNil(t, avg)
	assert.InDelta(t, 10.0, *avg, 0.001)
}

func TestDeleteClearsAverageWhenLastReviewGoes(t *testing.T) {
	db := openTestDB(t)
	seedReviewFixture(t, db)
	r := NewRepo(db)
	ctx := context.Background()

	created, err := r.Create(ctx, "shruti123", "M001", 8, "")
	require.NoError(t, err)

	// wrong author deletes nothing
	removed, err := r.Delete(ctx, created.ID, "arjun_dev")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = r.Delete(ctx, created.ID, "shruti123")
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Nil(t, mediaAverage(t, db, "M001"), "no reviews left, average reverts to NULL")

	removed, err = r.Delete(ctx, created.ID, "shruti123")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestListByMedia(t *testing.T) {
	db := openTestDB(t)
	seedReviewFixture(t, db)
	r := NewRepo(db)
	ctx := context.Background()

	_, err := r.Create(ctx, "shruti123", "M001", 8, "one")
	require.NoError(t, err)
	_, err = r.Create(ctx, "arjun_dev", "M001", 6, "two")
	require.NoError(t, err)

	list, total, err := r.ListByMedia(ctx, "M001", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	page, total, err := r.ListByMedia(ctx, "M001", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, page, 1)

	empty, total, err := r.ListByMedia(ctx, "M404", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, empty)
}
