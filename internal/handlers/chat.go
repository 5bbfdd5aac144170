package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campus-chat/internal/models"
	"campus-chat/internal/notify"
	"campus-chat/internal/repositories"
	"campus-chat/internal/telemetry"
	"campus-chat/internal/ws"
)

// ChatHandler manages direct-message endpoints and moderation toggles.
type ChatHandler struct {
	rooms      repositories.RoomRepository
	messages   repositories.MessageRepository
	moderation repositories.ModerationRepository
	users      repositories.UserRepository
	hub        *ws.Hub
	fanout     *notify.Fanout
	audit      *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(rooms repositories.RoomRepository, messages repositories.MessageRepository, moderation repositories.ModerationRepository, users repositories.UserRepository, hub *ws.Hub, fanout *notify.Fanout, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{
		rooms:      rooms,
		messages:   messages,
		moderation: moderation,
		users:      users,
		hub:        hub,
		fanout:     fanout,
		audit:      audit,
	}
}

// ListConversations returns direct-conversation summaries for the caller.
// A failed read serves an empty list; the conversation list must never
// hard-fail in the UI.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")

	summaries, err := h.messages.ListConversations(c.Request.Context(), userID)
	if err != nil {
		log.Printf("list conversations failed user=%d: %v", userID, err)
		c.JSON(http.StatusOK, gin.H{"conversations": []models.ConversationSummary{}})
		return
	}
	if summaries == nil {
		summaries = []models.ConversationSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// GetMessages returns the message history with one other user. No room
// yet means an empty history with a null room id, never an error.
// Transient read failures degrade the same way.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	withUserID, err := strconv.Atoi(c.Query("with_user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid with_user_id"})
		return
	}

	userID := c.GetInt("userID")
	room, err := h.rooms.Lookup(c.Request.Context(), userID, withUserID)
	if err != nil {
		if !errors.Is(err, repositories.ErrRoomNotFound) {
			log.Printf("room lookup failed user=%d with=%d: %v", userID, withUserID, err)
		}
		c.JSON(http.StatusOK, gin.H{"room_id": nil, "messages": []models.Message{}})
		return
	}

	msgs, err := h.messages.ListByRoom(c.Request.Context(), room.ID)
	if err != nil {
		log.Printf("list messages failed room=%d: %v", room.ID, err)
		c.JSON(http.StatusOK, gin.H{"room_id": room.ID, "messages": []models.Message{}})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"room_id": room.ID, "messages": msgs})
}

// PostMessage sends a direct message: moderation check, lazy room
// resolution, durable persist, then live broadcast and notification
// fan-out. Persistence happens before any live delivery.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		ToUserID int    `json:"to_user_id" binding:"required"`
		Text     string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if userID == req.ToUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return
	}

	verdict, err := h.moderation.CanSend(c.Request.Context(), userID, req.ToUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "moderation check failed"})
		return
	}
	switch verdict {
	case repositories.SendBlockedByCaller:
		c.JSON(http.StatusForbidden, gin.H{"error": "you have blocked this user", "reason": "blocked_by_you"})
		return
	case repositories.SendBlockedByTarget:
		c.JSON(http.StatusForbidden, gin.H{"error": "you are blocked by this user", "reason": "blocked_by_them"})
		return
	}

	room, err := h.rooms.Resolve(c.Request.Context(), userID, req.ToUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve conversation"})
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), room.ID, userID, req.ToUserID, req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.BroadcastDirectMessage(room.ID, msg)
	h.notifyRecipient(c, req.ToUserID, userID)
	h.emitAudit(c, "INFO", "Direct message sent")
	c.JSON(http.StatusCreated, msg)
}

// notifyRecipient runs the DM notification fan-out. Its failure never
// affects the already-persisted send.
func (h *ChatHandler) notifyRecipient(c *gin.Context, recipientID, senderID int) {
	if h.fanout == nil {
		return
	}

	senderName := ""
	if h.users != nil {
		if user, err := h.users.GetUser(c.Request.Context(), senderID); err == nil {
			senderName = user.Username
		}
	}

	if _, err := h.fanout.Notify(c.Request.Context(), recipientID, models.NotificationDM, senderID, senderName, nil, nil); err != nil {
		log.Printf("dm notification failed recipient=%d: %v", recipientID, err)
	}
}

// MarkMessagesRead flips unread messages addressed to the caller in one
// room. Accepts either a room id or the other participant's id. The
// operation is idempotent.
func (h *ChatHandler) MarkMessagesRead(c *gin.Context) {
	var req struct {
		RoomID     int `json:"room_id"`
		WithUserID int `json:"with_user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RoomID == 0 && req.WithUserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id or with_user_id required"})
		return
	}

	userID := c.GetInt("userID")
	roomID := req.RoomID
	if roomID == 0 {
		room, err := h.rooms.Lookup(c.Request.Context(), userID, req.WithUserID)
		if err != nil {
			if errors.Is(err, repositories.ErrRoomNotFound) {
				c.JSON(http.StatusOK, gin.H{"marked": 0})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve conversation"})
			return
		}
		roomID = room.ID
	} else {
		member, err := h.rooms.IsParticipant(c.Request.Context(), roomID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
			return
		}
		if !member {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
			return
		}
	}

	marked, err := h.messages.MarkRead(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}

	if marked > 0 {
		h.hub.BroadcastDirectRead(roomID, userID)
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// Block activates a block on the target user.
func (h *ChatHandler) Block(c *gin.Context) {
	var req struct {
		TargetUserID int `json:"target_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if userID == req.TargetUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot block yourself"})
		return
	}

	if err := h.moderation.Block(c.Request.Context(), userID, req.TargetUserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not block user"})
		return
	}

	h.emitAudit(c, "INFO", "User blocked")
	c.Status(http.StatusNoContent)
}

// Unblock deactivates a block on the target user.
func (h *ChatHandler) Unblock(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("target_user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target user id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.moderation.Unblock(c.Request.Context(), userID, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not unblock user"})
		return
	}

	h.emitAudit(c, "INFO", "User unblocked")
	c.Status(http.StatusNoContent)
}

// Mute activates a mute on the target user, optionally until a deadline.
// Muting filters the muter's live notifications only; it never affects
// message delivery.
func (h *ChatHandler) Mute(c *gin.Context) {
	var req struct {
		TargetUserID int        `json:"target_user_id" binding:"required"`
		Until        *time.Time `json:"until"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if userID == req.TargetUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot mute yourself"})
		return
	}

	if err := h.moderation.Mute(c.Request.Context(), userID, req.TargetUserID, req.Until); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mute user"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Unmute deactivates a mute on the target user.
func (h *ChatHandler) Unmute(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("target_user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target user id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.moderation.Unmute(c.Request.Context(), userID, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not unmute user"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
