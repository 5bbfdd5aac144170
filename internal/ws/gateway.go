package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"campus-chat/internal/observability"
	"campus-chat/internal/presence"
	"campus-chat/internal/repositories"
)

// Gateway owns the connection lifecycle and event relay. It routes events
// to the right channel and keeps the presence tracker current; everything
// else (persistence, moderation, fan-out) lives behind the REST layer.
type Gateway struct {
	hub         *Hub
	tracker     *presence.Tracker
	roomRepo    repositories.RoomRepository
	groupRepo   repositories.GroupRepository
	messageRepo repositories.MessageRepository
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, tracker *presence.Tracker, roomRepo repositories.RoomRepository, groupRepo repositories.GroupRepository, messageRepo repositories.MessageRepository) *Gateway {
	return &Gateway{
		hub:         hub,
		tracker:     tracker,
		roomRepo:    roomRepo,
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, registers the client on its personal
// channel, and runs the read loop until disconnect. Identity comes from
// the gateway-issued X-User-ID header (or user_id query for browsers
// that cannot set headers on the ws handshake); a connection without one
// is rejected.
func (g *Gateway) Handle(c *gin.Context) {
	userID, ok := identityFromRequest(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	ctx, span := otel.Tracer("campus-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	client := newClient(conn, info)
	client.start()
	g.hub.Register(client)

	// Presence mutation and transition decision are a single atomic step
	// inside the tracker; the broadcast happens after, outside the lock.
	if g.tracker.Connect(userID, info.ConnID) {
		g.hub.BroadcastPresence(PresenceUpdate{UserID: userID, Status: StatusOnline})
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.chat", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   observability.WSEventPayload(info.ConnID, info.UserID, info.DeviceID, info.IP, "ws_connect", 0, ""),
	}, observability.BuildHeaders(info.RequestID, info.TraceID))

	go g.readLoop(client)
}

func (g *Gateway) readLoop(client *Client) {
	var closeReason string
	defer func() {
		g.hub.Unregister(client)
		if g.tracker.Disconnect(client.info.UserID, client.info.ConnID) {
			lastSeen, _ := g.tracker.LastSeen(client.info.UserID)
			g.hub.BroadcastPresence(PresenceUpdate{UserID: client.info.UserID, Status: StatusOffline, LastSeen: &lastSeen})
		}
		client.close(websocket.CloseNormalClosure, "")

		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		_ = observability.PublishEvent(context.Background(), "ws_events.chat", observability.EventEnvelope{
			EventType: "ws_events",
			EventName: "ws_disconnect",
			Payload:   observability.WSEventPayload(client.info.ConnID, client.info.UserID, client.info.DeviceID, client.info.IP, "ws_disconnect", time.Since(client.info.ConnectedAt), closeReason),
		}, observability.BuildHeaders(client.info.RequestID, client.info.TraceID))
	}()

	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		var event ClientEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("websocket bad event from user %d: %v", client.info.UserID, err)
			continue
		}
		g.dispatch(client, event)
	}
}

func (g *Gateway) dispatch(client *Client, event ClientEvent) {
	ctx := context.Background()
	userID := client.info.UserID

	switch event.Type {
	case EventDMJoin:
		member, err := g.roomRepo.IsParticipant(ctx, event.RoomID, userID)
		if err != nil || !member {
			return
		}
		g.hub.JoinRoom(client, event.RoomID)

	case EventDMLeave:
		g.hub.LeaveRoom(client, event.RoomID)

	case EventDMMarkRead:
		flipped, err := g.messageRepo.MarkRead(ctx, event.RoomID, userID)
		if err != nil {
			log.Printf("mark read failed room=%d user=%d: %v", event.RoomID, userID, err)
			return
		}
		if flipped > 0 {
			g.hub.BroadcastDirectRead(event.RoomID, userID)
		}

	case EventGroupJoin:
		member, err := g.groupRepo.IsMember(ctx, event.GroupID, userID)
		if err != nil || !member {
			return
		}
		g.hub.JoinGroup(client, event.GroupID)

	case EventGroupLeave:
		g.hub.LeaveGroup(client, event.GroupID)

	case EventGroupTyping, EventGroupStop:
		// Membership was verified at join time; only joined clients relay.
		if !g.hub.InGroup(client, event.GroupID) {
			return
		}
		g.hub.BroadcastTyping(event.GroupID, userID, event.Type == EventGroupTyping)

	case EventPresenceQuery:
		online := g.tracker.OnlineSubset(event.UserIDs)
		if err := g.hub.SendPresenceSnapshot(client, online); err != nil {
			log.Printf("presence snapshot failed user=%d: %v", userID, err)
		}

	default:
		log.Printf("websocket unknown event type %q from user %d", event.Type, userID)
	}
}

func identityFromRequest(c *gin.Context) (int, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		raw = c.Query("user_id")
	}
	if raw == "" {
		return 0, false
	}
	userID, err := strconv.Atoi(raw)
	if err != nil || userID <= 0 {
		return 0, false
	}
	return userID, true
}
