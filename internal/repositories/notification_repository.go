package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"campus-chat/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository persists and reads notification records.
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	ListForUser(ctx context.Context, userID int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID int, userID int) error
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create inserts the notification and returns the persisted row.
func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	err := r.db.QueryRowxContext(ctx, `INSERT INTO notifications (user_id, kind, actor_id, question_id, answer_id, message)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, user_id, kind, actor_id, question_id, answer_id, message, is_read, read_at, created_at`,
		n.UserID, n.Kind, n.ActorID, n.QuestionID, n.AnswerID, n.Message).
		Scan(&n.ID, &n.UserID, &n.Kind, &n.ActorID, &n.QuestionID, &n.AnswerID, &n.Message, &n.IsRead, &n.ReadAt, &n.CreatedAt)
	return n, err
}

// ListForUser returns the recipient's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.SelectContext(ctx, &list, `SELECT id, user_id, kind, actor_id, question_id, answer_id, message, is_read, read_at, created_at
        FROM notifications WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	return list, err
}

// MarkRead flips the read flag and stamps read_at. Marking an already
// read notification is a no-op.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID int, userID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read=TRUE, read_at=COALESCE(read_at, NOW()) WHERE id=$1 AND user_id=$2`, notificationID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
