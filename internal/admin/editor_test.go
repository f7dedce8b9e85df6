package admin

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchplan/internal/audit"
)

func newTestEditor(t *testing.T) (*Editor, *sql.DB) {
	t.Helper()
	db := openTestDB(t)
	return NewEditor(db, DefaultRegistry(), audit.NewRecorder(db)), db
}

func auditRows(t *testing.T, db *sql.DB) []map[string]string {
	t.Helper()
	rows, err := db.Query(`SELECT username, table_name, operation, record_id, change_details FROM activity_log ORDER BY log_id`)
	require.NoError(t, err)
	defer rows.Close()

	var out []map[string]string
	for rows.Next() {
		var username, tableName, op sql.NullString
		var recordID, details sql.NullString
		require.NoError(t, rows.Scan(&username, &tableName, &op, &recordID, &details))
		out = append(out, map[string]string{
			"username":   username.String,
			"table_name": tableName.String,
			"operation":  op.String,
			"record_id":  recordID.String,
			"details":    details.String,
		})
	}
	return out
}

func TestInsertFetchRoundTrip(t *testing.T) {
	e, db := newTestEditor(t)
	ctx := context.Background()

	id, err := e.Insert(ctx, "shruti123", "genres", map[string]string{
		"genre_id": "G001",
		"name":     "Crime",
	})
	require.NoError(t, err)
	assert.Equal(t, "G001", id)

	record, err := e.Fetch(ctx, "genres", "G001")
	require.NoError(t, err)
	assert.Equal(t, "Crime", record["name"])

	entries := auditRows(t, db)
	require.Len(t, entries, 1)
	assert.Equal(t, "shruti123", entries[0]["username"])
	assert.Equal(t, "genres", entries[0]["table_name"])
	assert.Equal(t, "INSERT", entries[0]["operation"])
	assert.Equal(t, "G001", entries[0]["record_id"])
	assert.Contains(t, entries[0]["details"], "name=Crime")
}

func TestInsertDropsBlankFields(t *testing.T) {
	e, _ := newTestEditor(t)
	ctx := context.Background()

	_, err := e.Insert(ctx, "shruti123", "media", map[string]string{
		"media_id":    "M001",
		"title":       "Dangal",
		"media_type":  "Movie",
		"description": "   ",
	})
	require.NoError(t, err)

	record, err := e.Fetch(ctx, "media", "M001")
	require.NoError(t, err)
	assert.Equal(t, "", record["description"])
	// schema default applied because the blank column was omitted
	assert.Equal(t, "U", record["age_rating"])
}

func TestInsertAllBlankIsRejected(t *testing.T) {
	e, db := newTestEditor(t)

	_, err := e.Insert(context.Background(), "shruti123", "genres", map[string]string{
		"genre_id": "",
		"name":     "  ",
	})
	assert.ErrorIs(t, err, ErrNoFields)
	assert.Empty(t, auditRows(t, db))
}

func TestInsertRejectsUnknownColumn(t *testing.T) {
	e, _ := newTestEditor(t)

	_, err := e.Insert(context.Background(), "shruti123", "genres", map[string]string{
		"genre_id": "G001",
		"bogus":    "x",
	})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestInsertRejectsSystemManagedColumn(t *testing.T) {
	e, _ := newTestEditor(t)

	_, err := e.Insert(context.Background(), "shruti123", "users", map[string]string{
		"username":      "omkar_b",
		"email":         "omkar@example.com",
		"password_hash": "x",
		"created_at":    "2020-01-01 00:00:00",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "system managed")

	// a blank value for the same column is simply dropped
	_, err = e.Insert(context.Background(), "shruti123", "users", map[string]string{
		"username":      "omkar_b",
		"email":         "omkar@example.com",
		"password_hash": "x",
		"created_at":    "",
	})
	require.NoError(t, err)
}

func TestInsertUsesRowIDWhenNoIdentifierSupplied(t *testing.T) {
	e, _ := newTestEditor(t)
	ctx := context.Background()

	id, err := e.Insert(ctx, "shruti123", "activity_log", map[string]string{
		"username":   "shruti123",
		"table_name": "media",
		"operation":  "INSERT",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	record, err := e.Fetch(ctx, "activity_log", id)
	require.NoError(t, err)
	assert.Equal(t, "media", record["table_name"])
}

func TestUpdateOnlyChangedColumns(t *testing.T) {
	e, db := newTestEditor(t)
	ctx := context.Background()

	_, err := e.Insert(ctx, "shruti123", "media", map[string]string{
		"media_id":   "M001",
		"title":      "Dangal",
		"media_type": "Movie",
		"age_rating": "U",
	})
	require.NoError(t, err)

	changed, err := e.Update(ctx, "arjun_dev", "media", "M001", map[string]string{
		"title":      "Dangal (2016)",
		"media_type": "Movie", // unchanged, must not count
	})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	record, err := e.Fetch(ctx, "media", "M001")
	require.NoError(t, err)
	assert.Equal(t, "Dangal (2016)", record["title"])

	entries := auditRows(t, db)
	require.Len(t, entries, 2)
	assert.Equal(t, "UPDATE", entries[1]["operation"])
	assert.Contains(t, entries[1]["details"], `title from "Dangal" to "Dangal (2016)"`)
	assert.NotContains(t, entries[1]["details"], "media_type")
}

func TestUpdateNoChangesIsNoOp(t *testing.T) {
	e, db := newTestEditor(t)
	ctx := context.Background()

	_, err := e.Insert(ctx, "shruti123", "genres", map[string]string{
		"genre_id": "G001",
		"name":     "Crime",
	})
	require.NoError(t, err)

	_, err = e.Update(ctx, "shruti123", "genres", "G001", map[string]string{
		"name": "Crime",
	})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	// no second audit entry for the no-op
	assert.Len(t, auditRows(t, db), 1)
}

func TestUpdateIgnoresIdentifierColumn(t *testing.T) {
	e, _ := newTestEditor(t)
	ctx := context.Background()

	_, err := e.Insert(ctx, "shruti123", "genres", map[string]string{
		"genre_id": "G001",
		"name":     "Crime",
	})
	require.NoError(t, err)

	// identifier never lands in SET, so only name changes
	changed, err := e.Update(ctx, "shruti123", "genres", "G001", map[string]string{
		"genre_id": "G999",
		"name":     "True Crime",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	record, err := e.Fetch(ctx, "genres", "G001")
	require.NoError(t, err)
	assert.Equal(t, "True Crime", record["name"])
}

func TestUpdateRejectsUnknownColumn(t *testing.T) {
	e, _ := newTestEditor(t)
	ctx := context.Background()

	_, err := e.Insert(ctx, "shruti123", "genres", map[string]string{
		"genre_id": "G001",
		"name":     "Crime",
	})
	require.NoError(t, err)

	_, err = e.Update(ctx, "shruti123", "genres", "G001", map[string]string{
		"name":  "True Crime",
		"bogus": "x",
	})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	// the valid field alongside it must not have been applied
	record, err := e.Fetch(ctx, "genres", "G001")
	require.NoError(t, err)
	assert.Equal(t, "Crime", record["name"])
}

func TestUpdateMissingRecord(t *testing.T) {
	e, _ := newTestEditor(t)

	_, err := e.Update(context.Background(), "shruti123", "genres", "G404", map[string]string{
		"name": "Ghost",
	})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteRemovesRowAndAudits(t *testing.T) {
	e, db := newTestEditor(t)
	ctx := context.Background()

	_, err := e.Insert(ctx, "shruti123", "genres", map[string]string{
		"genre_id": "G001",
		"name":     "Crime",
	})
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, "arjun_dev", "genres", "G001"))

	_, err = e.Fetch(ctx, "genres", "G001")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	entries := auditRows(t, db)
	require.Len(t, entries, 2)
	assert.Equal(t, "DELETE", entries[1]["operation"])
	assert.Equal(t, "arjun_dev", entries[1]["username"])
}

func TestDeleteMissingRecord(t *testing.T) {
	e, _ := newTestEditor(t)
	err := e.Delete(context.Background(), "shruti123", "genres", "G404")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMutationSurvivesAuditFailure(t *testing.T) {
	db := openTestDB(t)

	// point the recorder at a dead handle so every audit write fails
	deadDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	require.NoError(t, deadDB.Close())

	e := NewEditor(db, DefaultRegistry(), audit.NewRecorder(deadDB))
	ctx := context.Background()

	id, err := e.Insert(ctx, "shruti123", "genres", map[string]string{
		"genre_id": "G001",
		"name":     "Crime",
	})
	require.NoError(t, err)
	assert.Equal(t, "G001", id)

	record, err := e.Fetch(ctx, "genres", "G001")
	require.NoError(t, err)
	assert.Equal(t, "Crime", record["name"])

	assert.Empty(t, auditRows(t, db))
}

func TestListPagesByIdentifier(t *testing.T) {
	e, _ := newTestEditor(t)
	ctx := context.Background()

	for _, g := range [][2]string{{"G001", "Action"}, {"G002", "Comedy"}, {"G003", "Drama"}} {
		_, err := e.Insert(ctx, "shruti123", "genres", map[string]string{
			"genre_id": g[0],
			"name":     g[1],
		})
		require.NoError(t, err)
	}

	page, cols, err := e.List(ctx, "genres", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "G002", page[0]["genre_id"])
	assert.Equal(t, "G003", page[1]["genre_id"])
	assert.Equal(t, "genre_id", IdentifierColumn(cols))
}
