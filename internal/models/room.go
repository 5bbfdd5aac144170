package models

import "time"

// Room is a direct-message channel between exactly two users.
// user1_id always holds the lower id of the pair, so at most one
// room can exist per unordered pair.
type Room struct {
	ID        int       `db:"id" json:"id"`
	User1ID   int       `db:"user1_id" json:"user1_id"`
	User2ID   int       `db:"user2_id" json:"user2_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Other returns the participant that is not userID.
func (r Room) Other(userID int) int {
	if r.User1ID == userID {
		return r.User2ID
	}
	return r.User1ID
}

// HasParticipant reports whether userID belongs to the room.
func (r Room) HasParticipant(userID int) bool {
	return r.User1ID == userID || r.User2ID == userID
}

// ConversationSummary is the API view of one direct conversation.
type ConversationSummary struct {
	RoomID        int        `db:"room_id" json:"room_id"`
	FriendID      int        `db:"friend_id" json:"friend_id"`
	FriendName    string     `db:"friend_name" json:"friend_name"`
	LastMessage   *string    `db:"last_message" json:"last_message"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at"`
	UnreadCount   int        `db:"unread_count" json:"unread_count"`
}
