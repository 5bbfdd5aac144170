package models

import "time"

// Block is a directed relation: blocker refuses messages from (and to)
// blocked while active. Either direction blocks delivery.
type Block struct {
	BlockerID int       `db:"blocker_id" json:"blocker_id"`
	BlockedID int       `db:"blocked_id" json:"blocked_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Mute is a directed relation: muter stops receiving live notifications
// about muted. Muting never prevents message delivery.
type Mute struct {
	MuterID   int        `db:"muter_id" json:"muter_id"`
	MutedID   int        `db:"muted_id" json:"muted_id"`
	Active    bool       `db:"active" json:"active"`
	Until     *time.Time `db:"until" json:"until"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
