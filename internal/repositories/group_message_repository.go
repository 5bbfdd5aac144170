package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campus-chat/internal/models"
)

// GroupMessageRepository defines interactions for group messages and
// their per-member read receipts.
type GroupMessageRepository interface {
	Create(ctx context.Context, groupID int, senderID int, content string) (models.GroupMessage, error)
	List(ctx context.Context, groupID int) ([]models.GroupMessage, error)
	MarkAllRead(ctx context.Context, groupID int, userID int) (int64, error)
	UnreadCount(ctx context.Context, groupID int, userID int) (int, error)
}

// GroupMessageRepo is a sqlx-backed implementation.
type GroupMessageRepo struct {
	db *sqlx.DB
}

// NewGroupMessageRepo constructs a GroupMessageRepo.
func NewGroupMessageRepo(db *sqlx.DB) *GroupMessageRepo {
	return &GroupMessageRepo{db: db}
}

// Create persists a group message and fans out one receipt row per
// current member in the same transaction, pre-marked read for the
// sender. The receipts exist before the caller sees the message,
// which is what the unread-count contract depends on.
func (r *GroupMessageRepo) Create(ctx context.Context, groupID int, senderID int, content string) (models.GroupMessage, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.GroupMessage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var msg models.GroupMessage
	if err = tx.QueryRowxContext(ctx, `INSERT INTO group_messages (group_id, sender_id, content) VALUES ($1, $2, $3) RETURNING id, group_id, sender_id, content, created_at`, groupID, senderID, content).
		Scan(&msg.ID, &msg.GroupID, &msg.SenderID, &msg.Content, &msg.CreatedAt); err != nil {
		return models.GroupMessage{}, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO group_message_receipts (message_id, user_id, is_read)
        SELECT $1, gm.user_id, gm.user_id = $2 FROM group_members gm WHERE gm.group_id=$3`, msg.ID, senderID, groupID); err != nil {
		return models.GroupMessage{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.GroupMessage{}, err
	}
	return msg, nil
}

// List returns group messages ordered ascending by (created_at, id).
func (r *GroupMessageRepo) List(ctx context.Context, groupID int) ([]models.GroupMessage, error) {
	var msgs []models.GroupMessage
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, group_id, sender_id, content, created_at FROM group_messages WHERE group_id=$1 ORDER BY created_at ASC, id ASC`, groupID)
	return msgs, err
}

// MarkAllRead flips every unread receipt for the member across the group
// and returns how many were flipped.
func (r *GroupMessageRepo) MarkAllRead(ctx context.Context, groupID int, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE group_message_receipts gr SET is_read=TRUE
        FROM group_messages m
        WHERE gr.message_id = m.id AND m.group_id=$1 AND gr.user_id=$2 AND gr.is_read=FALSE`, groupID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCount returns the member's unread receipt count for the group.
func (r *GroupMessageRepo) UnreadCount(ctx context.Context, groupID int, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM group_message_receipts gr
        INNER JOIN group_messages m ON m.id = gr.message_id
        WHERE m.group_id=$1 AND gr.user_id=$2 AND gr.is_read=FALSE`, groupID, userID)
	return count, err
}
