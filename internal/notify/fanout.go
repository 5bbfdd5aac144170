package notify

import (
	"context"
	"fmt"
	"log"

	"campus-chat/internal/models"
	"campus-chat/internal/observability"
)

// Store persists notification records.
type Store interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
}

// MuteChecker answers whether muter currently mutes muted.
type MuteChecker interface {
	IsMuted(ctx context.Context, muterID int, mutedID int) (bool, error)
}

// Pusher attempts live delivery to a user's personal channel.
type Pusher interface {
	PushNotification(userID int, n models.Notification) error
}

// Fanout turns one triggering action into a durable notification plus a
// best-effort live push. Persistence always happens first; a failed push
// is logged and never unwinds the persisted record or the action that
// triggered it.
type Fanout struct {
	store  Store
	mutes  MuteChecker
	pusher Pusher
}

// NewFanout constructs a Fanout. mutes may be nil when mute filtering is
// not wanted (e.g. in tests).
func NewFanout(store Store, mutes MuteChecker, pusher Pusher) *Fanout {
	return &Fanout{store: store, mutes: mutes, pusher: pusher}
}

// Notify persists a notification for recipientID and attempts live
// delivery. Self-notification (actor == recipient) is suppressed and
// returns nil without error. The returned record is the persisted row.
func (f *Fanout) Notify(ctx context.Context, recipientID int, kind string, actorID int, actorName string, questionID, answerID *int) (*models.Notification, error) {
	if recipientID == actorID {
		return nil, nil
	}

	n, err := f.store.Create(ctx, models.Notification{
		UserID:     recipientID,
		Kind:       kind,
		ActorID:    actorID,
		QuestionID: questionID,
		AnswerID:   answerID,
		Message:    renderMessage(kind, actorName),
	})
	if err != nil {
		return nil, err
	}
	observability.IncNotification(kind)

	if f.muted(ctx, recipientID, actorID) {
		// The durable record stays; only the live push is filtered.
		return &n, nil
	}

	if err := f.pusher.PushNotification(recipientID, n); err != nil {
		log.Printf("notification push failed recipient=%d kind=%s: %v", recipientID, kind, err)
		observability.IncNotificationDeliveryFailure()
	}
	return &n, nil
}

func (f *Fanout) muted(ctx context.Context, recipientID, actorID int) bool {
	if f.mutes == nil {
		return false
	}
	muted, err := f.mutes.IsMuted(ctx, recipientID, actorID)
	if err != nil {
		log.Printf("mute check failed recipient=%d actor=%d: %v", recipientID, actorID, err)
		return false
	}
	return muted
}

// Message text is rendered once with the actor's display name at
// creation time, never re-rendered on read.
func renderMessage(kind, actorName string) string {
	switch kind {
	case models.NotificationDM:
		return fmt.Sprintf("%s sent you a message", actorName)
	case models.NotificationAnswer:
		return fmt.Sprintf("%s answered your question", actorName)
	case models.NotificationQuestionLike:
		return fmt.Sprintf("%s liked your question", actorName)
	case models.NotificationAnswerLike:
		return fmt.Sprintf("%s liked your answer", actorName)
	case models.NotificationFollow:
		return fmt.Sprintf("%s started following you", actorName)
	default:
		return actorName
	}
}
