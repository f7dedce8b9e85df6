package auth

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchplan/pkg/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func TestCreateUserWithoutOptionalFields(t *testing.T) {
	db := openTestDB(t)
	r := NewRepo(db)
	ctx := context.Background()

	// name and dob are optional at registration; only the credential
	// triple is required
	require.NoError(t, r.CreateUser(ctx, User{
		Username:     "newuser",
		Email:        "newuser@example.com",
		PasswordHash: "x",
	}))

	u, err := r.GetByUsername(ctx, "newuser")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "newuser", u.Username)
	assert.Equal(t, "user", u.Role, "role defaults to user")
	assert.Empty(t, u.Firstname)
	assert.Empty(t, u.DOB)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestCreateUserStoresProfileFields(t *testing.T) {
	db := openTestDB(t)
	r := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, r.CreateUser(ctx, User{
		Username:     "shruti123",
		Firstname:    "Shruti",
		Lastname:     "Gupta",
		DOB:          "2005-06-10",
		Email:        "shruti@example.com",
		PasswordHash: "x",
		Role:         "admin",
	}))

	u, err := r.GetByEmail(ctx, "SHRUTI@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Shruti", u.Firstname)
	assert.Equal(t, "2005-06-10", u.DOB)
	assert.Equal(t, "admin", u.Role)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	r := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, r.CreateUser(ctx, User{
		Username: "one", Email: "dup@example.com", PasswordHash: "x",
	}))
	err := r.CreateUser(ctx, User{
		Username: "two", Email: "dup@example.com", PasswordHash: "x",
	})
	assert.Error(t, err)
}

func TestBumpTokenVersion(t *testing.T) {
	db := openTestDB(t)
	r := NewRepo(db)
	ctx := context.Background()

	require.NoError(t, r.CreateUser(ctx, User{
		Username: "newuser", Email: "newuser@example.com", PasswordHash: "x",
	}))

	v, err := r.GetTokenVersion(ctx, "newuser")
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	require.NoError(t, r.BumpTokenVersion(ctx, "newuser"))

	v, err = r.GetTokenVersion(ctx, "newuser")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}
