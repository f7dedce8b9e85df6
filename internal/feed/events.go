package feed

import (
	"fmt"
	"time"

	"watchplan/pkg/models"
)

// Event is one activity-log entry on the wire.
type Event struct {
	Type      string    `json:"type"` // always "activity"
	LogID     int64     `json:"log_id"`
	Username  string    `json:"username"`
	TableName string    `json:"table_name"`
	Operation string    `json:"operation"`
	RecordID  string    `json:"record_id,omitempty"`
	Details   string    `json:"details,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// Summary renders the event as one scannable log line, e.g.
// "12:30:01 UPDATE media/M001 by shruti123: changed title".
func (e Event) Summary() string {
	target := e.TableName
	if e.RecordID != "" {
		target += "/" + e.RecordID
	}

	line := fmt.Sprintf("%s %-6s %s by %s",
		e.ChangedAt.Local().Format("15:04:05"), e.Operation, target, e.Username)
	if e.Details != "" {
		line += ": " + e.Details
	}
	return line
}

func eventFromEntry(e models.ActivityEntry) Event {
	return Event{
		Type:      "activity",
		LogID:     e.LogID,
		Username:  e.Username,
		TableName: e.TableName,
		Operation: e.Operation,
		RecordID:  e.RecordID,
		Details:   e.Details,
		ChangedAt: e.ChangedAt,
	}
}
