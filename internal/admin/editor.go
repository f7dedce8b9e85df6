package admin

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"watchplan/internal/audit"
	"watchplan/pkg/database"
)

// Editor performs insert, diff-based update and delete against any
// registered table, driven entirely by introspected column metadata.
type Editor struct {
	DB           *sql.DB
	Registry     *Registry
	Introspector *Introspector
	Audit        *audit.Recorder
}

func NewEditor(db *sql.DB, reg *Registry, rec *audit.Recorder) *Editor {
	return &Editor{
		DB:           db,
		Registry:     reg,
		Introspector: NewIntrospector(db, reg),
		Audit:        rec,
	}
}

// Insert writes one row from the supplied field values. Blank values are
// dropped before the statement is built; an all-blank submission issues no
// statement at all. Returns the identifier of the new row.
func (e *Editor) Insert(ctx context.Context, actor, table string, values map[string]string) (string, error) {
	cols, err := e.Introspector.Describe(ctx, table)
	if err != nil {
		return "", err
	}

	byName := make(map[string]Column, len(cols))
	for _, c := range cols {
		byName[c.Name] = c
	}
	for name := range values {
		c, ok := byName[name]
		if !ok {
			return "", fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, name)
		}
		if !Editable(c) && strings.TrimSpace(values[name]) != "" {
			return "", fmt.Errorf("%w: %s.%s is system managed", ErrUnknownColumn, table, name)
		}
	}

	// schema order keeps the statement deterministic
	var (
		names        []string
		placeholders []string
		args         []any
		summary      []string
	)
	for _, c := range cols {
		v, ok := values[c.Name]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		names = append(names, c.Name)
		placeholders = append(placeholders, "?")
		args = append(args, v)
		summary = append(summary, c.Name+"="+v)
	}
	if len(names) == 0 {
		return "", ErrNoFields
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(placeholders, ", "))

	res, err := database.ExecTx(ctx, e.DB, query, args...)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", table, err)
	}

	idCol := IdentifierColumn(cols)
	recordID := strings.TrimSpace(values[idCol])
	if recordID == "" {
		if n, err := res.LastInsertId(); err == nil {
			recordID = strconv.FormatInt(n, 10)
		}
	}

	e.Audit.Record(ctx, audit.Entry{
		Actor:    actor,
		Table:    table,
		Op:       audit.OpInsert,
		RecordID: recordID,
		Details:  "inserted " + strings.Join(summary, ", "),
	})
	return recordID, nil
}

// Update loads the current row, diffs the submitted fields against it and
// updates only the columns that changed. Identity is immutable: the
// identifier column never appears in the SET clause. An empty diff is a
// no-op that issues no statement and records no audit entry.
func (e *Editor) Update(ctx context.Context, actor, table, idValue string, fields map[string]string) (int, error) {
	cols, err := e.Introspector.Describe(ctx, table)
	if err != nil {
		return 0, err
	}
	idCol := IdentifierColumn(cols)

	byName := make(map[string]Column, len(cols))
	for _, c := range cols {
		byName[c.Name] = c
	}
	for name := range fields {
		if _, ok := byName[name]; !ok {
			return 0, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, name)
		}
	}

	current, err := e.Fetch(ctx, table, idValue)
	if err != nil {
		return 0, err
	}

	var (
		sets    []string
		args    []any
		summary []string
	)
	for _, c := range cols {
		if c.Name == idCol || !Editable(c) {
			continue
		}
		v, ok := fields[c.Name]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" || v == current[c.Name] {
			continue
		}
		sets = append(sets, c.Name+" = ?")
		args = append(args, v)
		summary = append(summary, fmt.Sprintf("%s from %q to %q", c.Name, current[c.Name], v))
	}
	if len(sets) == 0 {
		return 0, ErrNothingToUpdate
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, strings.Join(sets, ", "), idCol)
	args = append(args, idValue)

	if _, err := database.ExecTx(ctx, e.DB, query, args...); err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}

	e.Audit.Record(ctx, audit.Entry{
		Actor:    actor,
		Table:    table,
		Op:       audit.OpUpdate,
		RecordID: idValue,
		Details:  "changed " + strings.Join(summary, ", "),
	})
	return len(sets), nil
}

// Delete removes the row named by the identifier column.
func (e *Editor) Delete(ctx context.Context, actor, table, idValue string) error {
	cols, err := e.Introspector.Describe(ctx, table)
	if err != nil {
		return err
	}
	idCol := IdentifierColumn(cols)

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, idCol)
	res, err := database.ExecTx(ctx, e.DB, query, idValue)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRecordNotFound
	}

	e.Audit.Record(ctx, audit.Entry{
		Actor:    actor,
		Table:    table,
		Op:       audit.OpDelete,
		RecordID: idValue,
		Details:  "deleted row " + idCol + "=" + idValue,
	})
	return nil
}

// Fetch reads one row as a column-to-text map.
func (e *Editor) Fetch(ctx context.Context, table, idValue string) (map[string]string, error) {
	cols, err := e.Introspector.Describe(ctx, table)
	if err != nil {
		return nil, err
	}
	idCol := IdentifierColumn(cols)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", columnList(cols), table, idCol)
	row := e.DB.QueryRowContext(ctx, query, idValue)

	record, err := scanRecord(row.Scan, cols)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	return record, nil
}

// List reads a page of rows ordered by the identifier column.
func (e *Editor) List(ctx context.Context, table string, limit, offset int) ([]map[string]string, []Column, error) {
	cols, err := e.Introspector.Describe(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	idCol := IdentifierColumn(cols)

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT ? OFFSET ?", columnList(cols), table, idCol)
	rows, err := e.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	out := make([]map[string]string, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows.Scan, cols)
		if err != nil {
			return nil, nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows %s: %w", table, err)
	}
	return out, cols, nil
}

func columnList(cols []Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

func scanRecord(scan func(...any) error, cols []Column) (map[string]string, error) {
	vals := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := scan(dest...); err != nil {
		return nil, err
	}

	record := make(map[string]string, len(cols))
	for i, c := range cols {
		record[c.Name] = vals[i].String
	}
	return record, nil
}
