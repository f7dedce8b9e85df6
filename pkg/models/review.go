package models

import "time"

type Review struct {
	ID        string    `json:"review_id"`
	Username  string    `json:"username"`
	MediaID   string    `json:"media_id"`
	Text      string    `json:"review_text,omitempty"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Friendship struct {
	Username1 string    `json:"username_1"`
	Username2 string    `json:"username_2"`
	Status    string    `json:"status"` // pending, accepted, blocked
	CreatedAt time.Time `json:"created_at"`
}
