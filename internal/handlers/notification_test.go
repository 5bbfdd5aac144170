package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

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

type notificationFixture struct {
	notifications *mocks.NotificationRepositoryMock
	users         *mocks.UserRepositoryMock
	router        *gin.Engine
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &notificationFixture{
		notifications: new(mocks.NotificationRepositoryMock),
		users:         new(mocks.UserRepositoryMock),
	}

	fanout := notify.NewFanout(f.notifications, nil, ws.NewHub())
	handler := NewNotificationHandler(f.notifications, f.users, fanout)

	f.router = gin.New()
	f.router.Use(func(c *gin.Context) {
		c.Set("userID", 7)
	})
	f.router.GET("/notifications", handler.List)
	f.router.POST("/notifications/:notification_id/read", handler.MarkRead)
	f.router.POST("/internal/notifications", handler.InternalNotify)
	return f
}

func (f *notificationFixture) do(method, path string, body any) *httptest.ResponseRecorder {
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

func TestMarkNotificationReadNotFound(t *testing.T) {
	f := newNotificationFixture(t)
	f.notifications.On("MarkRead", mock.Anything, 99, 7).Return(repositories.ErrNotificationNotFound)

	rec := f.do(http.MethodPost, "/notifications/99/read", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInternalNotifyRendersActorName(t *testing.T) {
	f := newNotificationFixture(t)
	questionID := 31
	f.users.On("GetUser", mock.Anything, 12).Return(models.User{ID: 12, Username: "marko"}, nil)
	f.notifications.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.UserID == 7 && n.Kind == models.NotificationAnswer && n.Message == "marko answered your question"
	})).Return(models.Notification{ID: 1, UserID: 7, Kind: models.NotificationAnswer}, nil)

	rec := f.do(http.MethodPost, "/internal/notifications", gin.H{
		"recipient_id": 7, "kind": "answer", "actor_id": 12, "question_id": questionID,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	f.notifications.AssertExpectations(t)
}

func TestInternalNotifyRejectsUnknownKind(t *testing.T) {
	f := newNotificationFixture(t)

	rec := f.do(http.MethodPost, "/internal/notifications", gin.H{
		"recipient_id": 7, "kind": "poke", "actor_id": 12,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInternalNotifySuppressesSelf(t *testing.T) {
	f := newNotificationFixture(t)
	f.users.On("GetUser", mock.Anything, 7).Return(models.User{ID: 7, Username: "lena"}, nil)

	rec := f.do(http.MethodPost, "/internal/notifications", gin.H{
		"recipient_id": 7, "kind": "follow", "actor_id": 7,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "suppressed")
	f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
