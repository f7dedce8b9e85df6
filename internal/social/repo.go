package social

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"watchplan/pkg/database"
	"watchplan/pkg/models"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusBlocked  = "blocked"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Get returns the friendship row between two users in either direction.
func (r *Repo) Get(ctx context.Context, a, b string) (*models.Friendship, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT username_1, username_2, status, created_at
		FROM friends
		WHERE (username_1 = ? AND username_2 = ?)
		   OR (username_1 = ? AND username_2 = ?)
	`, a, b, b, a)

	f, err := scanFriendship(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship: %w", err)
	}
	return &f, nil
}

// Request creates a pending friendship from one user to another. The
// requester is always stored as username_1.
func (r *Repo) Request(ctx context.Context, from, to string) error {
	_, err := database.ExecTx(ctx, r.DB, `
		INSERT INTO friends (username_1, username_2, status)
		VALUES (?, ?, ?)
	`, from, to, StatusPending)
	if err != nil {
		return fmt.Errorf("insert friend request: %w", err)
	}
	return nil
}

// Accept moves a pending request addressed to the user into accepted.
func (r *Repo) Accept(ctx context.Context, user, requester string) (bool, error) {
	res, err := database.ExecTx(ctx, r.DB, `
		UPDATE friends
		SET status = ?
		WHERE username_1 = ? AND username_2 = ? AND status = ?
	`, StatusAccepted, requester, user, StatusPending)
	if err != nil {
		return false, fmt.Errorf("accept friend request: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Block marks the relationship blocked, creating it if absent. The blocker
// is stored as username_1 so only they can unblock.
func (r *Repo) Block(ctx context.Context, blocker, target string) error {
	if _, err := database.ExecTx(ctx, r.DB, `
		DELETE FROM friends
		WHERE (username_1 = ? AND username_2 = ?)
		   OR (username_1 = ? AND username_2 = ?)
	`, blocker, target, target, blocker); err != nil {
		return fmt.Errorf("clear friendship: %w", err)
	}

	if _, err := database.ExecTx(ctx, r.DB, `
		INSERT INTO friends (username_1, username_2, status)
		VALUES (?, ?, ?)
	`, blocker, target, StatusBlocked); err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

// Remove deletes the relationship in either direction. A block can only be
// removed by the user who placed it.
func (r *Repo) Remove(ctx context.Context, user, other string) (bool, error) {
	res, err := database.ExecTx(ctx, r.DB, `
		DELETE FROM friends
		WHERE ((username_1 = ? AND username_2 = ?) OR (username_1 = ? AND username_2 = ?))
		  AND NOT (status = ? AND username_1 = ?)
	`, user, other, other, user, StatusBlocked, other)
	if err != nil {
		return false, fmt.Errorf("remove friendship: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns the user's relationships, optionally filtered by status.
func (r *Repo) List(ctx context.Context, username, status string, limit, offset int) ([]models.Friendship, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	countSQL := "SELECT COUNT(*) FROM friends WHERE (username_1 = ? OR username_2 = ?)"
	listSQL := `
		SELECT username_1, username_2, status, created_at
		FROM friends
		WHERE (username_1 = ? OR username_2 = ?)`
	args := []any{username, username}
	if status != "" {
		countSQL += " AND status = ?"
		listSQL += " AND status = ?"
		args = append(args, status)
	}
	listSQL += " ORDER BY created_at DESC LIMIT ? OFFSET ?"

	var total int
	if err := r.DB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count friendships: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, listSQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list friendships: %w", err)
	}
	defer rows.Close()

	out := make([]models.Friendship, 0, limit)
	for rows.Next() {
		f, err := scanFriendship(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan friendship: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

func scanFriendship(scan func(...any) error) (models.Friendship, error) {
	var (
		f       models.Friendship
		status  sql.NullString
		created sql.NullString
	)
	if err := scan(&f.Username1, &f.Username2, &status, &created); err != nil {
		return models.Friendship{}, err
	}
	f.Status = status.String
	if created.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05", created.String); err == nil {
			f.CreatedAt = t
		}
	}
	return f, nil
}
