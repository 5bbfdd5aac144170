package ws

import (
	"time"

	"campus-chat/internal/models"
)

// Client-initiated event types.
const (
	EventDMJoin        = "dm:join"
	EventDMLeave       = "dm:leave"
	EventDMMarkRead    = "dm:markRead"
	EventGroupJoin     = "group:join"
	EventGroupLeave    = "group:leave"
	EventGroupTyping   = "group:typing"
	EventGroupStop     = "group:stopTyping"
	EventPresenceQuery = "presence:query"
)

// Server-emitted event types.
const (
	EventDMNewMessage      = "dm:newMessage"
	EventDMRead            = "dm:read"
	EventGroupNewMessage   = "group:newMessage"
	EventGroupReadUpdate   = "group:readUpdate"
	EventNotificationNew   = "notification:new"
	EventPresenceUpdate    = "presence:update"
	EventPresenceSnapshot  = "presence:snapshot"
)

// Presence status values carried on presence:update.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// ClientEvent is the inbound message shape. Fields irrelevant to a given
// type are left zero.
type ClientEvent struct {
	Type       string `json:"type"`
	RoomID     int    `json:"room_id,omitempty"`
	GroupID    int    `json:"group_id,omitempty"`
	FromUserID int    `json:"from_user_id,omitempty"`
	UserIDs    []int  `json:"user_ids,omitempty"`
}

type directMessageEvent struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

type readEvent struct {
	Type     string `json:"type"`
	RoomID   int    `json:"room_id"`
	ReaderID int    `json:"reader_id"`
}

type groupMessageEvent struct {
	Type    string               `json:"type"`
	Message *models.GroupMessage `json:"message"`
}

type typingEvent struct {
	Type    string `json:"type"`
	GroupID int    `json:"group_id"`
	UserID  int    `json:"user_id"`
}

type groupReadEvent struct {
	Type     string `json:"type"`
	GroupID  int    `json:"group_id"`
	ReaderID int    `json:"reader_id"`
}

type notificationEvent struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification"`
}

// PresenceUpdate is broadcast globally on every online/offline transition.
type PresenceUpdate struct {
	Type     string     `json:"type"`
	UserID   int        `json:"user_id"`
	Status   string     `json:"status"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

type presenceSnapshot struct {
	Type          string `json:"type"`
	OnlineUserIDs []int  `json:"online_user_ids"`
}
