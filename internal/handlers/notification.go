package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-chat/internal/models"
	"campus-chat/internal/notify"
	"campus-chat/internal/repositories"
)

// NotificationHandler serves the notification inbox and the internal
// fan-out entry point used by sibling services.
type NotificationHandler struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	fanout        *notify.Fanout
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(notifications repositories.NotificationRepository, users repositories.UserRepository, fanout *notify.Fanout) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		users:         users,
		fanout:        fanout,
	}
}

// List returns the caller's notifications, newest first. Read failures
// serve an empty list.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetInt("userID")

	list, err := h.notifications.ListForUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("list notifications failed user=%d: %v", userID, err)
		c.JSON(http.StatusOK, gin.H{"notifications": []models.Notification{}})
		return
	}
	if list == nil {
		list = []models.Notification{}
	}

	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// MarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := strconv.Atoi(c.Param("notification_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.notifications.MarkRead(c.Request.Context(), notificationID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}

	c.Status(http.StatusNoContent)
}

// InternalNotify lets sibling services (questions, likes, follows) push a
// notification through the shared fan-out path. It runs behind the
// internal route group, not the public API.
func (h *NotificationHandler) InternalNotify(c *gin.Context) {
	var req struct {
		RecipientID int    `json:"recipient_id" binding:"required"`
		Kind        string `json:"kind" binding:"required"`
		ActorID     int    `json:"actor_id" binding:"required"`
		QuestionID  *int   `json:"question_id"`
		AnswerID    *int   `json:"answer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidNotificationKind(req.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown notification kind"})
		return
	}

	actorName := ""
	if h.users != nil {
		if actor, err := h.users.GetUser(c.Request.Context(), req.ActorID); err == nil {
			actorName = actor.Username
		}
	}

	n, err := h.fanout.Notify(c.Request.Context(), req.RecipientID, req.Kind, req.ActorID, actorName, req.QuestionID, req.AnswerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create notification"})
		return
	}
	if n == nil {
		// Self-notification is suppressed, not an error.
		c.JSON(http.StatusOK, gin.H{"suppressed": true})
		return
	}

	c.JSON(http.StatusCreated, n)
}
