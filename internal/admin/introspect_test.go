package admin

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

func TestDescribeRejectsUnknownTable(t *testing.T) {
	db := openTestDB(t)
	in := NewIntrospector(db, DefaultRegistry())

	_, err := in.Describe(context.Background(), "users; DROP TABLE users")
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, err = in.Describe(context.Background(), "sqlite_master")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestDescribeReturnsSchemaOrder(t *testing.T) {
	db := openTestDB(t)
	in := NewIntrospector(db, DefaultRegistry())

	cols, err := in.Describe(context.Background(), "media")
	require.NoError(t, err)
	require.NotEmpty(t, cols)

	assert.Equal(t, "media_id", cols[0].Name)
	assert.True(t, cols[0].PrimaryKey)
	assert.False(t, cols[0].AutoGenerated) // TEXT primary key is caller-supplied
}

func TestDescribeCachesPerTable(t *testing.T) {
	db := openTestDB(t)
	in := NewIntrospector(db, DefaultRegistry())
	ctx := context.Background()

	first, err := in.Describe(ctx, "genres")
	require.NoError(t, err)

	// a second call must not touch the database again
	require.NoError(t, db.Close())
	second, err := in.Describe(ctx, "genres")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAutoGeneratedDetection(t *testing.T) {
	db := openTestDB(t)
	in := NewIntrospector(db, DefaultRegistry())
	ctx := context.Background()

	logCols, err := in.Describe(ctx, "activity_log")
	require.NoError(t, err)

	byName := map[string]Column{}
	for _, c := range logCols {
		byName[c.Name] = c
	}
	assert.True(t, byName["log_id"].AutoGenerated, "integer primary key is rowid-assigned")
	assert.True(t, byName["changed_at"].AutoGenerated, "CURRENT_TIMESTAMP default is store-assigned")
	assert.False(t, byName["table_name"].AutoGenerated)
}

func TestIdentifierColumnHeuristic(t *testing.T) {
	cases := []struct {
		name string
		cols []Column
		want string
	}{
		{
			"primary key wins",
			[]Column{{Name: "title"}, {Name: "media_id", PrimaryKey: true}},
			"media_id",
		},
		{
			"id suffix when no pk",
			[]Column{{Name: "label"}, {Name: "owner_id"}},
			"owner_id",
		},
		{
			"bare id when no pk",
			[]Column{{Name: "label"}, {Name: "ID"}},
			"ID",
		},
		{
			"first column fallback",
			[]Column{{Name: "alpha"}, {Name: "beta"}},
			"alpha",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IdentifierColumn(tc.cols))
		})
	}
}

func TestEditableExcludesAutoAndSystemManaged(t *testing.T) {
	assert.False(t, Editable(Column{Name: "log_id", AutoGenerated: true}))
	assert.False(t, Editable(Column{Name: "created_at"}))
	assert.False(t, Editable(Column{Name: "updated_at"}))
	assert.False(t, Editable(Column{Name: "changed_at"}))
	assert.True(t, Editable(Column{Name: "title"}))
}

func TestRegistryListsAllTables(t *testing.T) {
	reg := DefaultRegistry()
	names := reg.Names()

	assert.GreaterOrEqual(t, len(names), 15)
	assert.Contains(t, names, "users")
	assert.Contains(t, names, "media")
	assert.Contains(t, names, "activity_log")
	// sorted for stable presentation
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}
