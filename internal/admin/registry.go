package admin

import (
	"errors"
	"sort"
)

var (
	ErrUnknownTable    = errors.New("table is not registered for editing")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNoFields        = errors.New("no non-blank fields supplied")
	ErrNothingToUpdate = errors.New("nothing to update")
	ErrRecordNotFound  = errors.New("record not found")
)

// Registry is the closed allow-list of tables the generic editor may touch.
// Table and column names are interpolated into statement text, so every
// entry point checks membership here before any SQL is built; values are
// always bound parameters.
type Registry struct {
	tables map[string]struct{}
}

func NewRegistry(names ...string) *Registry {
	r := &Registry{tables: make(map[string]struct{}, len(names))}
	for _, n := range names {
		r.tables[n] = struct{}{}
	}
	return r
}

// DefaultRegistry covers every application table, the activity log included
// (the log is registered read-only in the handler layer).
func DefaultRegistry() *Registry {
	return NewRegistry(
		"users",
		"media",
		"genres",
		"people",
		"episodes",
		"media_genres",
		"media_cast",
		"media_crew",
		"watchlist_items",
		"playlists",
		"playlist_items",
		"series_progress",
		"reviews",
		"friends",
		"activity_log",
	)
}

func (r *Registry) Allowed(table string) bool {
	_, ok := r.tables[table]
	return ok
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.tables))
	for n := range r.tables {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
