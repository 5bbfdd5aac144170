package models

import "time"

// Notification kinds. Each maps to one triggering forum action.
const (
	NotificationDM           = "dm"
	NotificationAnswer       = "answer"
	NotificationQuestionLike = "question_like"
	NotificationAnswerLike   = "answer_like"
	NotificationFollow       = "follow"
)

// Notification is a durable per-recipient record of a triggering action.
// The message text is rendered with the actor's display name at creation
// time and never re-rendered. Only the read flag is ever updated.
type Notification struct {
	ID         int        `db:"id" json:"id"`
	UserID     int        `db:"user_id" json:"user_id"`
	Kind       string     `db:"kind" json:"kind"`
	ActorID    int        `db:"actor_id" json:"actor_id"`
	QuestionID *int       `db:"question_id" json:"question_id,omitempty"`
	AnswerID   *int       `db:"answer_id" json:"answer_id,omitempty"`
	Message    string     `db:"message" json:"message"`
	IsRead     bool       `db:"is_read" json:"is_read"`
	ReadAt     *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// ValidNotificationKind reports whether kind is one of the known kinds.
func ValidNotificationKind(kind string) bool {
	switch kind {
	case NotificationDM, NotificationAnswer, NotificationQuestionLike, NotificationAnswerLike, NotificationFollow:
		return true
	}
	return false
}
