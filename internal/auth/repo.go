package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type User struct {
	Username     string
	Firstname    string
	Lastname     string
	DOB          string
	Email        string
	PasswordHash string
	Role         string
	TokenVersion int
	CreatedAt    time.Time
}

const userColumns = "username, firstname, lastname, dob, email, password_hash, role, token_version, created_at"

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) CreateUser(ctx context.Context, u User) error {
	if u.Role == "" {
		u.Role = "user"
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (username, firstname, lastname, dob, email, password_hash, role)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.Username, nullable(u.Firstname), nullable(u.Lastname), nullable(u.DOB), u.Email, u.PasswordHash, u.Role)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = ?
	`, email)
	return scanUser(row, "get by email")
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(username)
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = ?
	`, username)
	return scanUser(row, "get by username")
}

func (r *Repo) GetTokenVersion(ctx context.Context, username string) (int, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT token_version
		FROM users
		WHERE username = ?
	`, username)

	var version int
	if err := row.Scan(&version); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get token version: %w", err)
	}
	return version, nil
}

func (r *Repo) UpdatePasswordAndBumpTokenVersion(ctx context.Context, username string, passwordHash string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update password: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, token_version = token_version + 1
		WHERE username = ?
	`, passwordHash, username)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update password: user not found")
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update password: %w", err)
	}
	return nil
}

func (r *Repo) BumpTokenVersion(ctx context.Context, username string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET token_version = token_version + 1
		WHERE username = ?
	`, username)
	if err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bump token version rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bump token version: user not found")
	}
	return nil
}

func scanUser(row *sql.Row, op string) (*User, error) {
	var (
		u         User
		firstname sql.NullString
		lastname  sql.NullString
		dob       sql.NullString
		createdAt sql.NullString
	)
	err := row.Scan(&u.Username, &firstname, &lastname, &dob, &u.Email,
		&u.PasswordHash, &u.Role, &u.TokenVersion, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.Firstname = firstname.String
	u.Lastname = lastname.String
	u.DOB = dob.String
	if createdAt.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05", createdAt.String); err == nil {
			u.CreatedAt = t
		}
	}
	return &u, nil
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
