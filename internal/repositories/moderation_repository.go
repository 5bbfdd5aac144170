package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Verdict is the outcome of a moderation check before a direct send.
type Verdict int

const (
	SendAllowed Verdict = iota
	// SendBlockedByCaller: the sender has blocked the recipient.
	SendBlockedByCaller
	// SendBlockedByTarget: the recipient has blocked the sender.
	SendBlockedByTarget
)

const pgUndefinedTable = "42P01"

// ModerationRepository manages block/mute relations and pre-send checks.
type ModerationRepository interface {
	CanSend(ctx context.Context, senderID int, recipientID int) (Verdict, error)
	Block(ctx context.Context, blockerID int, blockedID int) error
	Unblock(ctx context.Context, blockerID int, blockedID int) error
	Mute(ctx context.Context, muterID int, mutedID int, until *time.Time) error
	Unmute(ctx context.Context, muterID int, mutedID int) error
	IsMuted(ctx context.Context, muterID int, mutedID int) (bool, error)
}

// ModerationRepo is a sqlx implementation of ModerationRepository.
type ModerationRepo struct {
	db *sqlx.DB
}

// NewModerationRepo constructs a ModerationRepo.
func NewModerationRepo(db *sqlx.DB) *ModerationRepo {
	return &ModerationRepo{db: db}
}

// CanSend checks both directions of the block relation. Mutes are never
// consulted here; muting affects notification delivery only. An absent
// blocks table degrades to allowed instead of failing the send.
func (r *ModerationRepo) CanSend(ctx context.Context, senderID int, recipientID int) (Verdict, error) {
	var check struct {
		ByCaller bool `db:"by_caller"`
		ByTarget bool `db:"by_target"`
	}
	err := r.db.GetContext(ctx, &check, `SELECT
        EXISTS(SELECT 1 FROM blocks WHERE blocker_id=$1 AND blocked_id=$2 AND active) AS by_caller,
        EXISTS(SELECT 1 FROM blocks WHERE blocker_id=$2 AND blocked_id=$1 AND active) AS by_target`,
		senderID, recipientID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUndefinedTable {
			return SendAllowed, nil
		}
		return SendAllowed, err
	}
	if check.ByCaller {
		return SendBlockedByCaller, nil
	}
	if check.ByTarget {
		return SendBlockedByTarget, nil
	}
	return SendAllowed, nil
}

// Block activates the blocker→blocked relation.
func (r *ModerationRepo) Block(ctx context.Context, blockerID int, blockedID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO blocks (blocker_id, blocked_id, active) VALUES ($1, $2, TRUE)
        ON CONFLICT (blocker_id, blocked_id) DO UPDATE SET active = TRUE`, blockerID, blockedID)
	return err
}

// Unblock deactivates the blocker→blocked relation.
func (r *ModerationRepo) Unblock(ctx context.Context, blockerID int, blockedID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE blocks SET active = FALSE WHERE blocker_id=$1 AND blocked_id=$2`, blockerID, blockedID)
	return err
}

// Mute activates the muter→muted relation, optionally until a deadline.
func (r *ModerationRepo) Mute(ctx context.Context, muterID int, mutedID int, until *time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO mutes (muter_id, muted_id, active, until) VALUES ($1, $2, TRUE, $3)
        ON CONFLICT (muter_id, muted_id) DO UPDATE SET active = TRUE, until = EXCLUDED.until`, muterID, mutedID, until)
	return err
}

// Unmute deactivates the muter→muted relation.
func (r *ModerationRepo) Unmute(ctx context.Context, muterID int, mutedID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE mutes SET active = FALSE WHERE muter_id=$1 AND muted_id=$2`, muterID, mutedID)
	return err
}

// IsMuted reports whether muter currently has an active, unexpired mute
// on muted.
func (r *ModerationRepo) IsMuted(ctx context.Context, muterID int, mutedID int) (bool, error) {
	var muted bool
	err := r.db.GetContext(ctx, &muted, `SELECT EXISTS(SELECT 1 FROM mutes
        WHERE muter_id=$1 AND muted_id=$2 AND active AND (until IS NULL OR until > NOW()))`, muterID, mutedID)
	return muted, err
}
