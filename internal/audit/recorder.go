package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"watchplan/pkg/models"
)

const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"

	// SystemActor is the explicit fallback identity for process-internal
	// writers. HTTP mutations always carry an authenticated username.
	SystemActor = "system"
)

// Entry describes one mutation to append to the activity log.
type Entry struct {
	Actor    string
	Table    string
	Op       string
	RecordID string
	Details  string
}

// Publisher receives entries that were successfully recorded. Used to push
// audit rows onto the live feed.
type Publisher interface {
	Publish(models.ActivityEntry)
}

// Recorder appends audit rows. Recording is strictly best effort: a failed
// write is logged and reported as false, never propagated, so audit-trail
// unavailability can't block user-facing CRUD.
type Recorder struct {
	DB        *sql.DB
	Publisher Publisher
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{DB: db}
}

func (r *Recorder) Record(ctx context.Context, e Entry) bool {
	actor := strings.TrimSpace(e.Actor)
	if actor == "" {
		actor = SystemActor
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO activity_log (username, table_name, operation, record_id, change_details)
		VALUES (?, ?, ?, ?, ?)
	`, actor, e.Table, e.Op, e.RecordID, e.Details)
	if err != nil {
		log.Printf("[audit] record %s %s/%s failed: %v", e.Op, e.Table, e.RecordID, err)
		return false
	}

	if r.Publisher != nil {
		id, _ := res.LastInsertId()
		r.Publisher.Publish(models.ActivityEntry{
			LogID:     id,
			Username:  actor,
			TableName: e.Table,
			Operation: e.Op,
			RecordID:  e.RecordID,
			Details:   e.Details,
			ChangedAt: time.Now().UTC(),
		})
	}
	return true
}

// List returns activity entries, newest first.
func (r *Recorder) List(ctx context.Context, table string, limit, offset int) ([]models.ActivityEntry, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var (
		total    int
		countErr error
	)
	if table == "" {
		countErr = r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_log`).Scan(&total)
	} else {
		countErr = r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_log WHERE table_name = ?`, table).Scan(&total)
	}
	if countErr != nil {
		return nil, 0, fmt.Errorf("count activity: %w", countErr)
	}

	var (
		rows *sql.Rows
		err  error
	)
	if table == "" {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT log_id, username, table_name, operation, record_id, change_details, changed_at
			FROM activity_log
			ORDER BY log_id DESC
			LIMIT ? OFFSET ?
		`, limit, offset)
	} else {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT log_id, username, table_name, operation, record_id, change_details, changed_at
			FROM activity_log
			WHERE table_name = ?
			ORDER BY log_id DESC
			LIMIT ? OFFSET ?
		`, table, limit, offset)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := make([]models.ActivityEntry, 0, limit)
	for rows.Next() {
		var (
			entry    models.ActivityEntry
			username sql.NullString
			recordID sql.NullString
			details  sql.NullString
			changed  string
		)
		if err := rows.Scan(&entry.LogID, &username, &entry.TableName, &entry.Operation, &recordID, &details, &changed); err != nil {
			return nil, 0, fmt.Errorf("scan activity: %w", err)
		}
		entry.Username = username.String
		entry.RecordID = recordID.String
		entry.Details = details.String
		entry.ChangedAt = parseTimestamp(changed)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows activity: %w", err)
	}
	return out, total, nil
}

// parseTimestamp handles the formats sqlite emits for CURRENT_TIMESTAMP.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
