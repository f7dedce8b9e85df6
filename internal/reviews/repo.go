package reviews

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"watchplan/pkg/database"
	"watchplan/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, username, mediaID string, rating int, text string) (*models.Review, error) {
	id := uuid.NewString()
	_, err := database.ExecTx(ctx, r.DB, `
		INSERT INTO reviews (review_id, username, media_id, review_text, rating)
		VALUES (?, ?, ?, ?, ?)
	`, id, username, mediaID, text, rating)
	if err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}

	if err := r.refreshAverage(ctx, mediaID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) Update(ctx context.Context, id, username string, rating int, text string) (*models.Review, error) {
	res, err := database.ExecTx(ctx, r.DB, `
		UPDATE reviews
		SET review_text = ?, rating = ?, updated_at = CURRENT_TIMESTAMP
		WHERE review_id = ? AND username = ?
	`, text, rating, id, username)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	review, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review != nil {
		if err := r.refreshAverage(ctx, review.MediaID); err != nil {
			return nil, err
		}
	}
	return review, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Review, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT review_id, username, media_id, review_text, rating, created_at, updated_at
		FROM reviews
		WHERE review_id = ?
	`, id)

	review, err := scanReview(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return &review, nil
}

func (r *Repo) ListByMedia(ctx context.Context, mediaID string, limit, offset int) ([]models.Review, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reviews WHERE media_id = ?
	`, mediaID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT review_id, username, media_id, review_text, rating, created_at, updated_at
		FROM reviews
		WHERE media_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, mediaID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]models.Review, 0, limit)
	for rows.Next() {
		review, err := scanReview(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		out = append(out, review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

func (r *Repo) Delete(ctx context.Context, id, username string) (bool, error) {
	review, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if review == nil {
		return false, nil
	}

	res, err := database.ExecTx(ctx, r.DB, `
		DELETE FROM reviews
		WHERE review_id = ? AND username = ?
	`, id, username)
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}

	if err := r.refreshAverage(ctx, review.MediaID); err != nil {
		return true, err
	}
	return true, nil
}

// refreshAverage recomputes the denormalized media rating from its reviews.
func (r *Repo) refreshAverage(ctx context.Context, mediaID string) error {
	_, err := database.ExecTx(ctx, r.DB, `
		UPDATE media
		SET average_rating = (SELECT AVG(rating) FROM reviews WHERE media_id = ?)
		WHERE media_id = ?
	`, mediaID, mediaID)
	if err != nil {
		return fmt.Errorf("refresh average rating: %w", err)
	}
	return nil
}

func scanReview(scan func(...any) error) (models.Review, error) {
	var (
		review  models.Review
		text    sql.NullString
		created sql.NullString
		updated sql.NullString
	)
	if err := scan(&review.ID, &review.Username, &review.MediaID, &text, &review.Rating, &created, &updated); err != nil {
		return models.Review{}, err
	}
	review.Text = text.String
	review.CreatedAt = parseTimestamp(created.String)
	review.UpdatedAt = parseTimestamp(updated.String)
	return review, nil
}

func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
