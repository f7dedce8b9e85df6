package models

import "time"

// ActivityEntry is one append-only audit row. Entries are never updated
// or deleted by the application.
type ActivityEntry struct {
	LogID     int64     `json:"log_id"`
	Username  string    `json:"username"`
	TableName string    `json:"table_name"`
	Operation string    `json:"operation"` // INSERT, UPDATE or DELETE
	RecordID  string    `json:"record_id"`
	Details   string    `json:"change_details,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}
