package seed

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchplan/internal/catalog"
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

func TestRunLoadsSampleCatalog(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Run(context.Background(), db))

	counts := map[string]int{}
	for _, table := range []string{"users", "genres", "media", "people", "episodes"} {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		counts[table] = n
	}
	assert.Equal(t, 10, counts["users"])
	assert.Equal(t, 10, counts["genres"])
	assert.Equal(t, 10, counts["media"])
	assert.Equal(t, 10, counts["people"])
	assert.Equal(t, 10, counts["episodes"])

	var role string
	require.NoError(t, db.QueryRow(`SELECT role FROM users WHERE username = 'shruti123'`).Scan(&role))
	assert.Equal(t, "admin", role)

	// reloading over existing data replaces it rather than duplicating
	require.NoError(t, Run(context.Background(), db))
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM media`).Scan(&n))
	assert.Equal(t, 10, n)
}

func TestSeededDataIsSearchable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Run(context.Background(), db))

	repo := catalog.NewRepo(db)
	results, err := repo.Search(context.Background(), catalog.Query{
		Text:   "sacred",
		Scopes: []catalog.Scope{catalog.ScopeTitle},
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Sacred Games", results[0].Title)

	detail, err := repo.GetByID(context.Background(), "M001")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Len(t, detail.Episodes, 3)
}
