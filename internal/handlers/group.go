package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
	"campus-chat/internal/telemetry"
	"campus-chat/internal/ws"
)

// GroupHandler manages group chat endpoints.
type GroupHandler struct {
	groups   repositories.GroupRepository
	messages repositories.GroupMessageRepository
	users    repositories.UserRepository
	hub      *ws.Hub
	audit    *telemetry.AuditEmitter
}

// NewGroupHandler builds a GroupHandler.
func NewGroupHandler(groups repositories.GroupRepository, messages repositories.GroupMessageRepository, users repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{
		groups:   groups,
		messages: messages,
		users:    users,
		hub:      hub,
		audit:    audit,
	}
}

// CreateGroup creates a group with the caller as admin. Duplicate and
// self-referencing member ids collapse to a single membership each.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		MemberIDs []int  `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	group, err := h.groups.CreateGroup(c.Request.Context(), userID, req.Name, req.MemberIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.emitAudit(c, "INFO", "Group created")
	c.JSON(http.StatusCreated, group)
}

// ListGroups returns group summaries for the caller. Read failures serve
// an empty list so the sidebar never hard-fails.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID := c.GetInt("userID")

	groups, err := h.groups.ListGroupsForUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("list groups failed user=%d: %v", userID, err)
		c.JSON(http.StatusOK, gin.H{"groups": []models.GroupSummary{}})
		return
	}
	if groups == nil {
		groups = []models.GroupSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetGroupMessages returns a group's message history. Non-members get 403.
func (h *GroupHandler) GetGroupMessages(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	userID := c.GetInt("userID")
	if !h.requireMember(c, groupID, userID) {
		return
	}

	msgs, err := h.messages.List(c.Request.Context(), groupID)
	if err != nil {
		log.Printf("list group messages failed group=%d: %v", groupID, err)
		c.JSON(http.StatusOK, gin.H{"messages": []models.GroupMessage{}})
		return
	}
	if msgs == nil {
		msgs = []models.GroupMessage{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostGroupMessage persists a message and its per-member read receipts,
// then broadcasts to the group channel. Persistence precedes broadcast.
func (h *GroupHandler) PostGroupMessage(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if !h.requireMember(c, groupID, userID) {
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), groupID, userID, req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.BroadcastGroupMessage(groupID, msg)
	c.JSON(http.StatusCreated, msg)
}

// MarkGroupRead flips all of the caller's unread receipts in a group and
// announces the new read state. Idempotent.
func (h *GroupHandler) MarkGroupRead(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	userID := c.GetInt("userID")
	if !h.requireMember(c, groupID, userID) {
		return
	}

	marked, err := h.messages.MarkAllRead(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}

	if marked > 0 {
		h.hub.BroadcastGroupRead(groupID, userID)
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// ListMembers returns the group roster with display names.
func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	userID := c.GetInt("userID")
	if !h.requireMember(c, groupID, userID) {
		return
	}

	members, err := h.groups.ListMembers(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list members"})
		return
	}

	ids := make([]int, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	names := map[int]string{}
	if h.users != nil {
		if fetched, err := h.users.BulkUsernames(c.Request.Context(), ids); err == nil {
			names = fetched
		} else {
			log.Printf("bulk usernames failed group=%d: %v", groupID, err)
		}
	}

	type memberView struct {
		UserID   int    `json:"user_id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	out := make([]memberView, 0, len(members))
	for _, m := range members {
		out = append(out, memberView{UserID: m.UserID, Username: names[m.UserID], Role: m.Role})
	}

	c.JSON(http.StatusOK, gin.H{"members": out})
}

// requireMember verifies membership and writes the error response itself
// when the caller does not belong to the group.
func (h *GroupHandler) requireMember(c *gin.Context, groupID, userID int) bool {
	member, err := h.groups.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
		return false
	}
	return true
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
