package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-chat/internal/mocks"
	"campus-chat/internal/models"
	"campus-chat/internal/notify"
	"campus-chat/internal/repositories"
	"campus-chat/internal/ws"
)

type chatFixture struct {
	rooms         *mocks.RoomRepositoryMock
	messages      *mocks.MessageRepositoryMock
	moderation    *mocks.ModerationRepositoryMock
	users         *mocks.UserRepositoryMock
	notifications *mocks.NotificationRepositoryMock
	router        *gin.Engine
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &chatFixture{
		rooms:         new(mocks.RoomRepositoryMock),
		messages:      new(mocks.MessageRepositoryMock),
		moderation:    new(mocks.ModerationRepositoryMock),
		users:         new(mocks.UserRepositoryMock),
		notifications: new(mocks.NotificationRepositoryMock),
	}

	hub := ws.NewHub()
	fanout := notify.NewFanout(f.notifications, nil, hub)
	handler := NewChatHandler(f.rooms, f.messages, f.moderation, f.users, hub, fanout, nil)

	f.router = gin.New()
	f.router.Use(func(c *gin.Context) {
		c.Set("userID", 7)
	})
	f.router.GET("/conversations", handler.ListConversations)
	f.router.GET("/messages", handler.GetMessages)
	f.router.POST("/messages", handler.PostMessage)
	f.router.POST("/messages/read", handler.MarkMessagesRead)
	f.router.POST("/blocks", handler.Block)
	f.router.POST("/mutes", handler.Mute)
	return f
}

func (f *chatFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestPostMessagePersistsBeforeNotify(t *testing.T) {
	f := newChatFixture(t)

	room := models.Room{ID: 3, User1ID: 7, User2ID: 12}
	msg := models.Message{ID: 41, RoomID: 3, SenderID: 7, RecipientID: 12, Content: "hey", CreatedAt: time.Now()}

	f.moderation.On("CanSend", mock.Anything, 7, 12).Return(repositories.SendAllowed, nil)
	f.rooms.On("Resolve", mock.Anything, 7, 12).Return(room, nil)
	f.messages.On("Create", mock.Anything, 3, 7, 12, "hey").Return(msg, nil)
	f.users.On("GetUser", mock.Anything, 7).Return(models.User{ID: 7, Username: "lena"}, nil)
	f.notifications.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.UserID == 12 && n.Kind == models.NotificationDM && n.ActorID == 7
	})).Return(models.Notification{ID: 9, UserID: 12, Kind: models.NotificationDM}, nil)

	rec := f.do(http.MethodPost, "/messages", gin.H{"to_user_id": 12, "text": "hey"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 41, got.ID)
	f.messages.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
}

func TestPostMessageBlockedByCaller(t *testing.T) {
	f := newChatFixture(t)
	f.moderation.On("CanSend", mock.Anything, 7, 12).Return(repositories.SendBlockedByCaller, nil)

	rec := f.do(http.MethodPost, "/messages", gin.H{"to_user_id": 12, "text": "hey"})

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "blocked_by_you")
	f.rooms.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessageBlockedByTarget(t *testing.T) {
	f := newChatFixture(t)
	f.moderation.On("CanSend", mock.Anything, 7, 12).Return(repositories.SendBlockedByTarget, nil)

	rec := f.do(http.MethodPost, "/messages", gin.H{"to_user_id": 12, "text": "hey"})

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "blocked_by_them")
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessageToSelfRejected(t *testing.T) {
	f := newChatFixture(t)

	rec := f.do(http.MethodPost, "/messages", gin.H{"to_user_id": 7, "text": "hi me"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.moderation.AssertNotCalled(t, "CanSend", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessageSucceedsWhenNotificationFails(t *testing.T) {
	f := newChatFixture(t)

	room := models.Room{ID: 3, User1ID: 7, User2ID: 12}
	msg := models.Message{ID: 42, RoomID: 3, SenderID: 7, RecipientID: 12, Content: "hey"}

	f.moderation.On("CanSend", mock.Anything, 7, 12).Return(repositories.SendAllowed, nil)
	f.rooms.On("Resolve", mock.Anything, 7, 12).Return(room, nil)
	f.messages.On("Create", mock.Anything, 3, 7, 12, "hey").Return(msg, nil)
	f.users.On("GetUser", mock.Anything, 7).Return(models.User{ID: 7, Username: "lena"}, nil)
	f.notifications.On("Create", mock.Anything, mock.Anything).Return(models.Notification{}, errors.New("db down"))

	rec := f.do(http.MethodPost, "/messages", gin.H{"to_user_id": 12, "text": "hey"})

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetMessagesNoRoomYet(t *testing.T) {
	f := newChatFixture(t)
	f.rooms.On("Lookup", mock.Anything, 7, 12).Return(models.Room{}, repositories.ErrRoomNotFound)

	rec := f.do(http.MethodGet, "/messages?with_user_id=12", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		RoomID   *int             `json:"room_id"`
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.RoomID)
	assert.Empty(t, body.Messages)
}

func TestListConversationsDegradesToEmpty(t *testing.T) {
	f := newChatFixture(t)
	f.messages.On("ListConversations", mock.Anything, 7).Return(nil, errors.New("db down"))

	rec := f.do(http.MethodGet, "/conversations", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotNil(t, body.Conversations)
	assert.Empty(t, body.Conversations)
}

func TestMarkMessagesReadByRoom(t *testing.T) {
	f := newChatFixture(t)
	f.rooms.On("IsParticipant", mock.Anything, 3, 7).Return(true, nil)
	f.messages.On("MarkRead", mock.Anything, 3, 7).Return(int64(4), nil)

	rec := f.do(http.MethodPost, "/messages/read", gin.H{"room_id": 3})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"marked":4`)
}

func TestMarkMessagesReadRejectsOutsider(t *testing.T) {
	f := newChatFixture(t)
	f.rooms.On("IsParticipant", mock.Anything, 3, 7).Return(false, nil)

	rec := f.do(http.MethodPost, "/messages/read", gin.H{"room_id": 3})

	require.Equal(t, http.StatusForbidden, rec.Code)
	f.messages.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkMessagesReadWithUserNoRoom(t *testing.T) {
	f := newChatFixture(t)
	f.rooms.On("Lookup", mock.Anything, 7, 12).Return(models.Room{}, repositories.ErrRoomNotFound)

	rec := f.do(http.MethodPost, "/messages/read", gin.H{"with_user_id": 12})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"marked":0`)
}

func TestBlockSelfRejected(t *testing.T) {
	f := newChatFixture(t)

	rec := f.do(http.MethodPost, "/blocks", gin.H{"target_user_id": 7})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.moderation.AssertNotCalled(t, "Block", mock.Anything, mock.Anything, mock.Anything)
}

func TestMuteWithDeadline(t *testing.T) {
	f := newChatFixture(t)
	until := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	f.moderation.On("Mute", mock.Anything, 7, 12, mock.MatchedBy(func(ts *time.Time) bool {
		return ts != nil && ts.Equal(until)
	})).Return(nil)

	rec := f.do(http.MethodPost, "/mutes", gin.H{"target_user_id": 12, "until": until})

	require.Equal(t, http.StatusNoContent, rec.Code)
	f.moderation.AssertExpectations(t)
}
