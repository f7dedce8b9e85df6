package watchlist

import (
	"context"
	"database/sql"
	"fmt"

	"watchplan/pkg/database"
	"watchplan/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Upsert inserts or replaces a user's watchlist entry for one media.
func (r *Repo) Upsert(ctx context.Context, item models.WatchlistItem) error {
	var rating any
	if item.UserRating != nil {
		rating = *item.UserRating
	}
	_, err := database.ExecTx(ctx, r.DB, `
		INSERT INTO watchlist_items (username, media_id, status, user_rating)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username, media_id) DO UPDATE SET
			status = excluded.status,
			user_rating = excluded.user_rating
	`, item.Username, item.MediaID, item.Status, rating)
	if err != nil {
		return fmt.Errorf("upsert watchlist item: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, username, mediaID string) (bool, error) {
	res, err := database.ExecTx(ctx, r.DB, `
		DELETE FROM watchlist_items
		WHERE username = ? AND media_id = ?
	`, username, mediaID)
	if err != nil {
		return false, fmt.Errorf("delete watchlist item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) List(ctx context.Context, username string, status string, limit, offset int) ([]models.WatchlistItem, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	countSQL := "SELECT COUNT(*) FROM watchlist_items WHERE username = ?"
	listSQL := `
		SELECT w.username, w.media_id, w.status, w.user_rating
		FROM watchlist_items w
		JOIN media m ON m.media_id = w.media_id
		WHERE w.username = ?`
	args := []any{username}
	if status != "" {
		countSQL += " AND status = ?"
		listSQL += " AND w.status = ?"
		args = append(args, status)
	}
	listSQL += " ORDER BY m.title LIMIT ? OFFSET ?"

	var total int
	if err := r.DB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count watchlist: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, listSQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	out := make([]models.WatchlistItem, 0, limit)
	for rows.Next() {
		it, err := scanItem(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan watchlist row: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}

	return out, total, nil
}

func (r *Repo) Get(ctx context.Context, username, mediaID string) (*models.WatchlistItem, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT username, media_id, status, user_rating
		FROM watchlist_items
		WHERE username = ? AND media_id = ?
	`, username, mediaID)

	it, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get watchlist item: %w", err)
	}
	return &it, nil
}

func scanItem(scan func(...any) error) (models.WatchlistItem, error) {
	var (
		it     models.WatchlistItem
		status sql.NullString
		rating sql.NullInt64
	)
	if err := scan(&it.Username, &it.MediaID, &status, &rating); err != nil {
		return models.WatchlistItem{}, err
	}
	it.Status = status.String
	if rating.Valid {
		v := int(rating.Int64)
		it.UserRating = &v
	}
	return it, nil
}
