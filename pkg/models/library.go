package models

import "time"

// WatchlistItem tracks one media entry on a user's watchlist.
type WatchlistItem struct {
	Username   string `json:"username"`
	MediaID    string `json:"media_id"`
	Status     string `json:"status"` // watching, completed, planned, dropped
	UserRating *int   `json:"user_rating,omitempty"`
}

// SeriesProgress records the last episode a user watched for a series.
type SeriesProgress struct {
	Username      string    `json:"username"`
	MediaID       string    `json:"media_id"`
	LastEpisodeID string    `json:"last_watched_episode_id,omitempty"`
	LastWatchedAt time.Time `json:"last_watched_at"`
}

type Playlist struct {
	ID        string    `json:"playlist_id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
