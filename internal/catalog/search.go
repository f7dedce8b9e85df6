package catalog

import (
	"strings"
)

// Scope selects where a text search looks.
type Scope string

const (
	ScopeTitle Scope = "title"
	ScopeCast  Scope = "cast"
	ScopeCrew  Scope = "crew"
	ScopeGenre Scope = "genre"
)

// ParseScope maps user input onto the closed scope set.
func ParseScope(s string) (Scope, bool) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeTitle:
		return ScopeTitle, true
	case ScopeCast:
		return ScopeCast, true
	case ScopeCrew:
		return ScopeCrew, true
	case ScopeGenre:
		return ScopeGenre, true
	}
	return "", false
}

// Role narrows a people filter to cast credits, crew credits, or either.
type Role string

const (
	RoleAny  Role = "any"
	RoleCast Role = "cast"
	RoleCrew Role = "crew"
)

// Query carries the optional, orthogonal search filters. Filters within a
// group are OR'd; distinct groups are AND'd together.
type Query struct {
	Text       string
	Scopes     []Scope
	MediaType  string // "Movie", "Series" or "" for both
	Genres     []string
	People     []string
	PeopleRole Role
	MinRating  *float64
	Page       int
	PageSize   int
}

func (q Query) textActive() bool {
	return strings.TrimSpace(q.Text) != "" && len(q.Scopes) > 0
}

func (q Query) hasScope(s Scope) bool {
	for _, sc := range q.Scopes {
		if sc == s {
			return true
		}
	}
	return false
}

// clampPage normalizes pagination to the served bounds.
func (q Query) clampPage() (page, size int) {
	page = q.Page
	if page < 1 {
		page = 1
	}
	size = q.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

func (q Query) structural() bool {
	return q.MediaType != "" || len(cleanList(q.Genres)) > 0 ||
		len(cleanList(q.People)) > 0 || q.MinRating != nil
}

const mediaColumns = "m.media_id, m.title, m.description, m.release_year, m.media_type, m.age_rating, m.poster_url, m.average_rating"

// link-table conditions are existence checks, never joins, so a media row
// can't be duplicated by fanout and no DISTINCT pass is needed.
const (
	genreNameExists  = "EXISTS (SELECT 1 FROM media_genres mg JOIN genres g ON g.genre_id = mg.genre_id WHERE mg.media_id = m.media_id AND g.name IN (%s))"
	castNameExists   = "EXISTS (SELECT 1 FROM media_cast mc JOIN people p ON p.person_id = mc.person_id WHERE mc.media_id = m.media_id AND p.name IN (%s))"
	crewNameExists   = "EXISTS (SELECT 1 FROM media_crew mw JOIN people p ON p.person_id = mw.person_id WHERE mw.media_id = m.media_id AND p.name IN (%s))"
	castNameMatches  = "EXISTS (SELECT 1 FROM media_cast mc JOIN people p ON p.person_id = mc.person_id WHERE mc.media_id = m.media_id AND p.name LIKE ?)"
	crewNameMatches  = "EXISTS (SELECT 1 FROM media_crew mw JOIN people p ON p.person_id = mw.person_id WHERE mw.media_id = m.media_id AND p.name LIKE ?)"
	genreNameMatches = "EXISTS (SELECT 1 FROM media_genres mg JOIN genres g ON g.genre_id = mg.genre_id WHERE mg.media_id = m.media_id AND g.name LIKE ?)"
)

// buildSearchSQL composes the ranked, paginated search statement. Only
// trusted identifier text is interpolated; every caller value is a bound
// parameter.
func buildSearchSQL(q Query, countOnly bool) (string, []any) {
	baseSelect := "SELECT " + mediaColumns + " FROM media m"
	if countOnly {
		baseSelect = "SELECT COUNT(*) FROM media m"
	}

	var where []string
	var args []any

	if t := normalizeType(q.MediaType); t != "" {
		where = append(where, "m.media_type = ?")
		args = append(args, t)
	}

	if genres := cleanList(q.Genres); len(genres) > 0 {
		where = append(where, inClause(genreNameExists, len(genres)))
		for _, g := range genres {
			args = append(args, g)
		}
	}

	if people := cleanList(q.People); len(people) > 0 {
		castPred := inClause(castNameExists, len(people))
		crewPred := inClause(crewNameExists, len(people))

		switch q.PeopleRole {
		case RoleCast:
			where = append(where, castPred)
			args = appendStrings(args, people)
		case RoleCrew:
			where = append(where, crewPred)
			args = appendStrings(args, people)
		default:
			where = append(where, "("+castPred+" OR "+crewPred+")")
			args = appendStrings(args, people)
			args = appendStrings(args, people)
		}
	}

	if q.MinRating != nil {
		where = append(where, "m.average_rating >= ?")
		args = append(args, *q.MinRating)
	}

	if q.textActive() {
		pattern := "%" + strings.TrimSpace(q.Text) + "%"
		var textOr []string
		if q.hasScope(ScopeTitle) {
			textOr = append(textOr, "m.title LIKE ?")
			args = append(args, pattern)
		}
		if q.hasScope(ScopeCast) {
			textOr = append(textOr, castNameMatches)
			args = append(args, pattern)
		}
		if q.hasScope(ScopeCrew) {
			textOr = append(textOr, crewNameMatches)
			args = append(args, pattern)
		}
		if q.hasScope(ScopeGenre) {
			textOr = append(textOr, genreNameMatches)
			args = append(args, pattern)
		}
		if len(textOr) > 0 {
			where = append(where, "("+strings.Join(textOr, " OR ")+")")
		}
	}

	sqlStr := baseSelect
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if countOnly {
		return sqlStr, args
	}

	// title matches outrank rows reached only through cast/crew/genre
	order := "m.average_rating IS NULL, m.average_rating DESC, m.title ASC"
	if q.textActive() && q.hasScope(ScopeTitle) {
		order = "CASE WHEN m.title LIKE ? THEN 0 ELSE 1 END, " + order
		args = append(args, "%"+strings.TrimSpace(q.Text)+"%")
	}
	sqlStr += " ORDER BY " + order

	page, size := q.clampPage()
	sqlStr += " LIMIT ? OFFSET ?"
	args = append(args, size, (page-1)*size)

	return sqlStr, args
}

func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "movie":
		return "Movie"
	case "series":
		return "Series"
	default:
		return ""
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func inClause(format string, n int) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	return strings.Replace(format, "%s", placeholders, 1)
}

func appendStrings(args []any, vals []string) []any {
	for _, v := range vals {
		args = append(args, v)
	}
	return args
}
