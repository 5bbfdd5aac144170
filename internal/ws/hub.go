package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"campus-chat/internal/models"
	"campus-chat/internal/observability"
)

// Hub maintains the active connections: one personal channel per user
// (auto-joined on connect, used for notification and presence delivery)
// plus explicitly joined direct-room and group channels.
type Hub struct {
	mu             sync.RWMutex
	users          map[int]map[*Client]struct{}
	rooms          map[int]map[*Client]struct{}
	groups         map[int]map[*Client]struct{}
	roomsByClient  map[*Client]map[int]struct{}
	groupsByClient map[*Client]map[int]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		users:          make(map[int]map[*Client]struct{}),
		rooms:          make(map[int]map[*Client]struct{}),
		groups:         make(map[int]map[*Client]struct{}),
		roomsByClient:  make(map[*Client]map[int]struct{}),
		groupsByClient: make(map[*Client]map[int]struct{}),
	}
}

// Register adds the client to its user's personal channel.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.users[c.info.UserID]; !ok {
		h.users[c.info.UserID] = make(map[*Client]struct{})
	}
	h.users[c.info.UserID][c] = struct{}{}
}

// Unregister removes the client from its personal channel and from every
// room and group channel it joined. Reconnecting clients re-issue joins.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.users[c.info.UserID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, c.info.UserID)
		}
	}
	for roomID := range h.roomsByClient[c] {
		h.removeLocked(h.rooms, roomID, c)
	}
	delete(h.roomsByClient, c)
	for groupID := range h.groupsByClient[c] {
		h.removeLocked(h.groups, groupID, c)
	}
	delete(h.groupsByClient, c)
}

// JoinRoom subscribes the client to a direct room channel.
func (h *Hub) JoinRoom(c *Client, roomID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addLocked(h.rooms, roomID, c)
	if _, ok := h.roomsByClient[c]; !ok {
		h.roomsByClient[c] = make(map[int]struct{})
	}
	h.roomsByClient[c][roomID] = struct{}{}
}

// LeaveRoom unsubscribes the client from a direct room channel.
func (h *Hub) LeaveRoom(c *Client, roomID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(h.rooms, roomID, c)
	delete(h.roomsByClient[c], roomID)
}

// JoinGroup subscribes the client to a group channel.
func (h *Hub) JoinGroup(c *Client, groupID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addLocked(h.groups, groupID, c)
	if _, ok := h.groupsByClient[c]; !ok {
		h.groupsByClient[c] = make(map[int]struct{})
	}
	h.groupsByClient[c][groupID] = struct{}{}
}

// LeaveGroup unsubscribes the client from a group channel.
func (h *Hub) LeaveGroup(c *Client, groupID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(h.groups, groupID, c)
	delete(h.groupsByClient[c], groupID)
}

// InGroup reports whether the client has joined the group channel.
func (h *Hub) InGroup(c *Client, groupID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.groupsByClient[c][groupID]
	return ok
}

func (h *Hub) addLocked(channels map[int]map[*Client]struct{}, id int, c *Client) {
	if _, ok := channels[id]; !ok {
		channels[id] = make(map[*Client]struct{})
	}
	channels[id][c] = struct{}{}
}

func (h *Hub) removeLocked(channels map[int]map[*Client]struct{}, id int, c *Client) {
	if conns, ok := channels[id]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(channels, id)
		}
	}
}

// BroadcastDirectMessage sends a new direct message to the room channel.
func (h *Hub) BroadcastDirectMessage(roomID int, msg models.Message) {
	h.broadcast(h.snapshotRoom(roomID), directMessageEvent{Type: EventDMNewMessage, Message: &msg})
}

// BroadcastDirectRead notifies the room that a member marked it read.
func (h *Hub) BroadcastDirectRead(roomID int, readerID int) {
	h.broadcast(h.snapshotRoom(roomID), readEvent{Type: EventDMRead, RoomID: roomID, ReaderID: readerID})
}

// BroadcastGroupMessage sends a new group message to the group channel.
func (h *Hub) BroadcastGroupMessage(groupID int, msg models.GroupMessage) {
	h.broadcast(h.snapshotGroup(groupID), groupMessageEvent{Type: EventGroupNewMessage, Message: &msg})
}

// BroadcastTyping relays a typing indicator to every group subscriber
// except connections belonging to the typist. Never echoed to the sender.
func (h *Hub) BroadcastTyping(groupID int, userID int, typing bool) {
	eventType := EventGroupTyping
	if !typing {
		eventType = EventGroupStop
	}

	conns := h.snapshotGroup(groupID)
	filtered := conns[:0]
	for _, c := range conns {
		if c.info.UserID != userID {
			filtered = append(filtered, c)
		}
	}
	h.broadcast(filtered, typingEvent{Type: eventType, GroupID: groupID, UserID: userID})
}

// BroadcastGroupRead notifies the group that a member marked it read.
func (h *Hub) BroadcastGroupRead(groupID int, readerID int) {
	h.broadcast(h.snapshotGroup(groupID), groupReadEvent{Type: EventGroupReadUpdate, GroupID: groupID, ReaderID: readerID})
}

// PushNotification delivers a notification to the recipient's personal
// channel. An offline recipient is not an error; the durable record is
// already persisted by the caller.
func (h *Hub) PushNotification(userID int, n models.Notification) error {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return nil
	}

	payload, err := json.Marshal(notificationEvent{Type: EventNotificationNew, Notification: &n})
	if err != nil {
		return err
	}

	var errs []error
	for _, c := range conns {
		if err := c.enqueue(payload); err != nil {
			h.dropClient(c, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BroadcastPresence sends a presence transition to every connection.
func (h *Hub) BroadcastPresence(update PresenceUpdate) {
	update.Type = EventPresenceUpdate

	h.mu.RLock()
	conns := make([]*Client, 0, len(h.users))
	for _, userConns := range h.users {
		for c := range userConns {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	h.broadcast(conns, update)
}

// SendPresenceSnapshot answers a presence query on the asking connection.
func (h *Hub) SendPresenceSnapshot(c *Client, onlineUserIDs []int) error {
	payload, err := json.Marshal(presenceSnapshot{Type: EventPresenceSnapshot, OnlineUserIDs: onlineUserIDs})
	if err != nil {
		return err
	}
	return c.enqueue(payload)
}

func (h *Hub) snapshotRoom(roomID int) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		conns = append(conns, c)
	}
	return conns
}

func (h *Hub) snapshotGroup(groupID int) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]*Client, 0, len(h.groups[groupID]))
	for c := range h.groups[groupID] {
		conns = append(conns, c)
	}
	return conns
}

func (h *Hub) broadcast(conns []*Client, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}
	for _, c := range conns {
		if err := c.enqueue(payload); err != nil {
			h.dropClient(c, err)
		}
	}
}

func (h *Hub) dropClient(c *Client, err error) {
	log.Printf("websocket write error conn=%s user=%d: %v", c.info.ConnID, c.info.UserID, err)
	h.Unregister(c)

	observability.IncWSEvent("ws_error")
	_ = observability.PublishEvent(context.Background(), "ws_events.chat", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload: observability.WSEventPayload(c.info.ConnID, c.info.UserID, c.info.DeviceID, c.info.IP, "ws_error", time.Since(c.info.ConnectedAt), err.Error()),
	}, observability.BuildHeaders(c.info.RequestID, c.info.TraceID))
}
