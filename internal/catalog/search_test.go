package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchSQLNoFilters(t *testing.T) {
	sqlStr, args := buildSearchSQL(Query{}, false)

	assert.NotContains(t, sqlStr, "WHERE")
	assert.Contains(t, sqlStr, "ORDER BY m.average_rating IS NULL, m.average_rating DESC, m.title ASC")
	assert.Contains(t, sqlStr, "LIMIT ? OFFSET ?")
	// default page and size
	require.Len(t, args, 2)
	assert.Equal(t, 20, args[0])
	assert.Equal(t, 0, args[1])
}

func TestBuildSearchSQLCountHasNoOrderOrLimit(t *testing.T) {
	sqlStr, args := buildSearchSQL(Query{MediaType: "Movie"}, true)

	assert.True(t, strings.HasPrefix(sqlStr, "SELECT COUNT(*)"))
	assert.NotContains(t, sqlStr, "ORDER BY")
	assert.NotContains(t, sqlStr, "LIMIT")
	assert.Equal(t, []any{"Movie"}, args)
}

func TestBuildSearchSQLGenresAreExistenceChecks(t *testing.T) {
	sqlStr, args := buildSearchSQL(Query{Genres: []string{"Crime", "Drama"}}, false)

	assert.Contains(t, sqlStr, "EXISTS (SELECT 1 FROM media_genres")
	assert.Contains(t, sqlStr, "g.name IN (?, ?)")
	assert.NotContains(t, sqlStr, "DISTINCT")
	assert.Equal(t, "Crime", args[0])
	assert.Equal(t, "Drama", args[1])
}

func TestBuildSearchSQLPeopleRoleVariants(t *testing.T) {
	base := Query{People: []string{"Aamir Khan"}}

	castOnly := base
	castOnly.PeopleRole = RoleCast
	sqlStr, _ := buildSearchSQL(castOnly, true)
	assert.Contains(t, sqlStr, "media_cast")
	assert.NotContains(t, sqlStr, "media_crew")

	crewOnly := base
	crewOnly.PeopleRole = RoleCrew
	sqlStr, _ = buildSearchSQL(crewOnly, true)
	assert.Contains(t, sqlStr, "media_crew")
	assert.NotContains(t, sqlStr, "media_cast")

	either := base
	either.PeopleRole = RoleAny
	sqlStr, args := buildSearchSQL(either, true)
	assert.Contains(t, sqlStr, "media_cast")
	assert.Contains(t, sqlStr, "media_crew")
	assert.Contains(t, sqlStr, " OR ")
	// name bound once per branch
	assert.Len(t, args, 2)
}

func TestBuildSearchSQLTextScopesAreORed(t *testing.T) {
	q := Query{
		Text:   "delhi",
		Scopes: []Scope{ScopeTitle, ScopeGenre},
	}
	sqlStr, args := buildSearchSQL(q, true)

	assert.Contains(t, sqlStr, "m.title LIKE ?")
	assert.Contains(t, sqlStr, "g.name LIKE ?")
	assert.Contains(t, sqlStr, " OR ")
	assert.Equal(t, []any{"%delhi%", "%delhi%"}, args)
}

func TestBuildSearchSQLTitleBoostOnlyWithTitleScope(t *testing.T) {
	withTitle := Query{Text: "dangal", Scopes: []Scope{ScopeTitle}}
	sqlStr, _ := buildSearchSQL(withTitle, false)
	assert.Contains(t, sqlStr, "CASE WHEN m.title LIKE ? THEN 0 ELSE 1 END")

	castOnly := Query{Text: "dangal", Scopes: []Scope{ScopeCast}}
	sqlStr, _ = buildSearchSQL(castOnly, false)
	assert.NotContains(t, sqlStr, "CASE WHEN")
}

func TestBuildSearchSQLPaginationClamp(t *testing.T) {
	cases := []struct {
		name       string
		page, size int
		wantLimit  int
		wantOffset int
	}{
		{"zero page", 0, 10, 10, 0},
		{"negative page", -3, 10, 10, 0},
		{"zero size", 2, 0, 20, 20},
		{"oversized", 1, 500, 20, 0},
		{"normal", 3, 25, 25, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, args := buildSearchSQL(Query{Page: tc.page, PageSize: tc.size}, false)
			require.GreaterOrEqual(t, len(args), 2)
			assert.Equal(t, tc.wantLimit, args[len(args)-2])
			assert.Equal(t, tc.wantOffset, args[len(args)-1])
		})
	}
}

func TestBuildSearchSQLBlankEntriesDropped(t *testing.T) {
	q := Query{Genres: []string{" ", "", "Drama"}}
	sqlStr, args := buildSearchSQL(q, true)

	assert.Contains(t, sqlStr, "g.name IN (?)")
	assert.Equal(t, []any{"Drama"}, args)
}
