package models

import "time"

// Member roles within a group. The creator is always inserted as admin.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Group represents a group chat room.
type Group struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	OwnerID   int       `db:"owner_id" json:"owner_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GroupMember is one row of the (group, user, role) relation.
type GroupMember struct {
	GroupID  int    `db:"group_id" json:"group_id"`
	UserID   int    `db:"user_id" json:"user_id"`
	Role     string `db:"role" json:"role"`
	Username string `db:"username" json:"username,omitempty"`
}

// GroupSummary is the API view of one group for a member, carrying the
// latest message and the member's unread count.
type GroupSummary struct {
	GroupID       int        `db:"group_id" json:"group_id"`
	Name          string     `db:"name" json:"name"`
	LastMessage   *string    `db:"last_message" json:"last_message"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at"`
	UnreadCount   int        `db:"unread_count" json:"unread_count"`
}

// GroupMessage is a message posted to a group. Read state lives in
// per-member receipt rows rather than on the message itself.
type GroupMessage struct {
	ID        int       `db:"id" json:"id"`
	GroupID   int       `db:"group_id" json:"group_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MessageReceipt records whether one member has read one group message.
// The sender's receipt is created pre-marked read.
type MessageReceipt struct {
	MessageID int  `db:"message_id" json:"message_id"`
	UserID    int  `db:"user_id" json:"user_id"`
	IsRead    bool `db:"is_read" json:"is_read"`
}
