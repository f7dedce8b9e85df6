package progress

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"watchplan/pkg/database"
	"watchplan/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// episodeBelongsTo reports whether the episode exists under the series.
func (r *Repo) episodeBelongsTo(ctx context.Context, mediaID, episodeID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM episodes
		WHERE episode_id = ? AND media_id = ?
	`, episodeID, mediaID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check episode: %w", err)
	}
	return n > 0, nil
}

// Upsert records the last watched episode for one user and series.
func (r *Repo) Upsert(ctx context.Context, p models.SeriesProgress) error {
	if p.LastEpisodeID != "" {
		ok, err := r.episodeBelongsTo(ctx, p.MediaID, p.LastEpisodeID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("episode %s does not belong to media %s", p.LastEpisodeID, p.MediaID)
		}
	}

	var episode any
	if p.LastEpisodeID != "" {
		episode = p.LastEpisodeID
	}
	_, err := database.ExecTx(ctx, r.DB, `
		INSERT INTO series_progress (username, media_id, last_watched_episode_id, last_watched_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(username, media_id) DO UPDATE SET
			last_watched_episode_id = excluded.last_watched_episode_id,
			last_watched_at = CURRENT_TIMESTAMP
	`, p.Username, p.MediaID, episode)
	if err != nil {
		return fmt.Errorf("upsert series progress: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, username, mediaID string) (*models.SeriesProgress, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT username, media_id, last_watched_episode_id, last_watched_at
		FROM series_progress
		WHERE username = ? AND media_id = ?
	`, username, mediaID)

	p, err := scanProgress(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series progress: %w", err)
	}
	return &p, nil
}

func (r *Repo) List(ctx context.Context, username string, limit, offset int) ([]models.SeriesProgress, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM series_progress WHERE username = ?
	`, username).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count series progress: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT username, media_id, last_watched_episode_id, last_watched_at
		FROM series_progress
		WHERE username = ?
		ORDER BY last_watched_at DESC
		LIMIT ? OFFSET ?
	`, username, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list series progress: %w", err)
	}
	defer rows.Close()

	out := make([]models.SeriesProgress, 0, limit)
	for rows.Next() {
		p, err := scanProgress(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan series progress: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows series progress: %w", err)
	}

	return out, total, nil
}

func scanProgress(scan func(...any) error) (models.SeriesProgress, error) {
	var (
		p       models.SeriesProgress
		episode sql.NullString
		watched sql.NullString
	)
	if err := scan(&p.Username, &p.MediaID, &episode, &watched); err != nil {
		return models.SeriesProgress{}, err
	}
	p.LastEpisodeID = episode.String
	if watched.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05", watched.String); err == nil {
			p.LastWatchedAt = t
		}
	}
	return p, nil
}
