package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"campus-chat/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

const pgUniqueViolation = "23505"

// RoomRepository resolves and fetches direct-message rooms.
type RoomRepository interface {
	Resolve(ctx context.Context, userA int, userB int) (models.Room, error)
	Lookup(ctx context.Context, userA int, userB int) (models.Room, error)
	GetRoom(ctx context.Context, roomID int) (models.Room, error)
	IsParticipant(ctx context.Context, roomID int, userID int) (bool, error)
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// CanonicalPair orders two user ids lower-first so that a pair always maps
// to the same room row regardless of argument order.
func CanonicalPair(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

// Resolve returns the room for the pair, creating it on first contact.
// Racing first contact from both directions is resolved by the unique
// constraint on (user1_id, user2_id): the loser re-reads the winner's row.
func (r *RoomRepo) Resolve(ctx context.Context, userA int, userB int) (models.Room, error) {
	if userA == userB {
		return models.Room{}, errors.New("cannot resolve room with self")
	}
	user1, user2 := CanonicalPair(userA, userB)

	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT id, user1_id, user2_id, created_at FROM rooms WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, err
	}

	err = r.db.QueryRowxContext(ctx, `INSERT INTO rooms (user1_id, user2_id) VALUES ($1, $2) RETURNING id, user1_id, user2_id, created_at`, user1, user2).
		Scan(&room.ID, &room.User1ID, &room.User2ID, &room.CreatedAt)
	if err == nil {
		return room, nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		// Lost the creation race; the row exists now.
		err = r.db.GetContext(ctx, &room, `SELECT id, user1_id, user2_id, created_at FROM rooms WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	}
	return room, err
}

// Lookup fetches the room for the pair without creating it.
func (r *RoomRepo) Lookup(ctx context.Context, userA int, userB int) (models.Room, error) {
	user1, user2 := CanonicalPair(userA, userB)
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT id, user1_id, user2_id, created_at FROM rooms WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// GetRoom fetches a room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID int) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT id, user1_id, user2_id, created_at FROM rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// IsParticipant checks whether a user belongs to the room.
func (r *RoomRepo) IsParticipant(ctx context.Context, roomID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM rooms WHERE id=$1 AND (user1_id=$2 OR user2_id=$2))`, roomID, userID)
	return exists, err
}
