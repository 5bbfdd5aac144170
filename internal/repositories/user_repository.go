package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"campus-chat/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads the user directory. Accounts are written by the
// auth subsystem; this service only resolves display names.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	BulkUsernames(ctx context.Context, ids []int) (map[int]string, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches one directory entry.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// BulkUsernames resolves display names for a set of ids. Unknown ids are
// simply absent from the result.
func (r *UserRepo) BulkUsernames(ctx context.Context, ids []int) (map[int]string, error) {
	names := map[int]string{}
	if len(ids) == 0 {
		return names, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT id, username FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
