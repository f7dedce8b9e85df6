package admin

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
)

// Column is one introspected table column in schema order.
type Column struct {
	Name          string `json:"name"`
	PrimaryKey    bool   `json:"primary_key"`
	AutoGenerated bool   `json:"auto_generated"`
}

// systemManaged are timestamp columns the store maintains itself; they are
// never presented in insert or update forms.
var systemManaged = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"changed_at": {},
}

// Introspector reads column metadata via PRAGMA table_info and caches the
// result per table. One round trip per table, ever.
type Introspector struct {
	DB       *sql.DB
	Registry *Registry

	mu    sync.Mutex
	cache map[string][]Column
}

func NewIntrospector(db *sql.DB, reg *Registry) *Introspector {
	return &Introspector{
		DB:       db,
		Registry: reg,
		cache:    make(map[string][]Column),
	}
}

func (in *Introspector) Describe(ctx context.Context, table string) ([]Column, error) {
	if !in.Registry.Allowed(table) {
		return nil, ErrUnknownTable
	}

	in.mu.Lock()
	cols, ok := in.cache[table]
	in.mu.Unlock()
	if ok {
		return cols, nil
	}

	// table is registry-validated; PRAGMA takes no bind parameters.
	rows, err := in.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}

		cols = append(cols, Column{
			Name:          name,
			PrimaryKey:    pk > 0,
			AutoGenerated: isAutoGenerated(colType, dflt, pk),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows table_info %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table_info %s: %w", table, ErrUnknownTable)
	}

	in.mu.Lock()
	in.cache[table] = cols
	in.mu.Unlock()
	return cols, nil
}

// isAutoGenerated flags rowid-alias primary keys and store-assigned
// timestamp defaults.
func isAutoGenerated(colType string, dflt sql.NullString, pk int) bool {
	if pk > 0 && strings.EqualFold(strings.TrimSpace(colType), "INTEGER") {
		return true
	}
	return dflt.Valid && strings.EqualFold(strings.TrimSpace(dflt.String), "CURRENT_TIMESTAMP")
}

// IdentifierColumn picks the column that names a row for update and delete:
// the first declared primary key, else the first column named id or *_id,
// else the first column in schema order.
func IdentifierColumn(cols []Column) string {
	for _, c := range cols {
		if c.PrimaryKey {
			return c.Name
		}
	}
	for _, c := range cols {
		lower := strings.ToLower(c.Name)
		if lower == "id" || strings.HasSuffix(lower, "_id") {
			return c.Name
		}
	}
	return cols[0].Name
}

// Editable reports whether a column may appear in insert and update forms.
func Editable(c Column) bool {
	if c.AutoGenerated {
		return false
	}
	_, managed := systemManaged[strings.ToLower(c.Name)]
	return !managed
}
