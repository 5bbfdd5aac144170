package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"campus-chat/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, roomID int, senderID int, recipientID int, content string) (models.Message, error)
	ListByRoom(ctx context.Context, roomID int) ([]models.Message, error)
	ListConversations(ctx context.Context, userID int) ([]models.ConversationSummary, error)
	MarkRead(ctx context.Context, roomID int, userID int) (int64, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create stores a direct message with a server-assigned timestamp and
// returns the full persisted row.
func (r *MessageRepo) Create(ctx context.Context, roomID int, senderID int, recipientID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (room_id, sender_id, recipient_id, content) VALUES ($1, $2, $3, $4) RETURNING id, room_id, sender_id, recipient_id, content, is_read, created_at`, roomID, senderID, recipientID, content).
		Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.RecipientID, &msg.Content, &msg.IsRead, &msg.CreatedAt)
	return msg, err
}

// ListByRoom returns messages ordered ascending by (created_at, id).
func (r *MessageRepo) ListByRoom(ctx context.Context, roomID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, room_id, sender_id, recipient_id, content, is_read, created_at FROM messages WHERE room_id=$1 ORDER BY created_at ASC, id ASC`, roomID)
	return msgs, err
}

// ListConversations returns one summary per room the user participates in,
// most recently active first, rooms without any message last.
func (r *MessageRepo) ListConversations(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	query := `SELECT r.id AS room_id,
            CASE WHEN r.user1_id=$1 THEN r.user2_id ELSE r.user1_id END AS friend_id,
            COALESCE(u.username, '') AS friend_name,
            lm.content AS last_message,
            lm.created_at AS last_message_at,
            (SELECT COUNT(*) FROM messages m WHERE m.room_id=r.id AND m.recipient_id=$1 AND m.is_read=FALSE) AS unread_count
        FROM rooms r
        LEFT JOIN users u ON u.id = CASE WHEN r.user1_id=$1 THEN r.user2_id ELSE r.user1_id END
        LEFT JOIN LATERAL (
            SELECT content, created_at FROM messages m
            WHERE m.room_id = r.id
            ORDER BY m.created_at DESC, m.id DESC
            LIMIT 1
        ) lm ON TRUE
        WHERE r.user1_id=$1 OR r.user2_id=$1
        ORDER BY lm.created_at DESC NULLS LAST, r.created_at DESC`
	var summaries []models.ConversationSummary
	err := r.db.SelectContext(ctx, &summaries, query, userID)
	return summaries, err
}

// MarkRead flips every unread message addressed to the user in the room
// and returns how many were flipped. Calling it again is a no-op.
func (r *MessageRepo) MarkRead(ctx context.Context, roomID int, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read=TRUE WHERE room_id=$1 AND recipient_id=$2 AND is_read=FALSE`, roomID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, room_id, sender_id, recipient_id, content, is_read, created_at FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}
