package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-chat/internal/mocks"
	"campus-chat/internal/models"
	"campus-chat/internal/ws"
)

type groupFixture struct {
	groups   *mocks.GroupRepositoryMock
	messages *mocks.GroupMessageRepositoryMock
	users    *mocks.UserRepositoryMock
	router   *gin.Engine
}

func newGroupFixture(t *testing.T) *groupFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &groupFixture{
		groups:   new(mocks.GroupRepositoryMock),
		messages: new(mocks.GroupMessageRepositoryMock),
		users:    new(mocks.UserRepositoryMock),
	}

	handler := NewGroupHandler(f.groups, f.messages, f.users, ws.NewHub(), nil)

	f.router = gin.New()
	f.router.Use(func(c *gin.Context) {
		c.Set("userID", 7)
	})
	f.router.POST("/groups", handler.CreateGroup)
	f.router.GET("/groups", handler.ListGroups)
	f.router.GET("/groups/:group_id/messages", handler.GetGroupMessages)
	f.router.POST("/groups/:group_id/messages", handler.PostGroupMessage)
	f.router.POST("/groups/:group_id/read", handler.MarkGroupRead)
	f.router.GET("/groups/:group_id/members", handler.ListMembers)
	return f
}

func (f *groupFixture) do(method, path string, body any) *httptest.ResponseRecorder {
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

func TestCreateGroupCallerIsOwner(t *testing.T) {
	f := newGroupFixture(t)
	group := models.Group{ID: 5, Name: "study group", OwnerID: 7}
	f.groups.On("CreateGroup", mock.Anything, 7, "study group", []int{12, 13}).Return(group, nil)

	rec := f.do(http.MethodPost, "/groups", gin.H{"name": "study group", "member_ids": []int{12, 13}})

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.Group
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 7, got.OwnerID)
	f.groups.AssertExpectations(t)
}

func TestCreateGroupRequiresName(t *testing.T) {
	f := newGroupFixture(t)

	rec := f.do(http.MethodPost, "/groups", gin.H{"member_ids": []int{12}})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.groups.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListGroupsDegradesToEmpty(t *testing.T) {
	f := newGroupFixture(t)
	f.groups.On("ListGroupsForUser", mock.Anything, 7).Return(nil, errors.New("db down"))

	rec := f.do(http.MethodGet, "/groups", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Groups []models.GroupSummary `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotNil(t, body.Groups)
	assert.Empty(t, body.Groups)
}

func TestGetGroupMessagesRejectsNonMember(t *testing.T) {
	f := newGroupFixture(t)
	f.groups.On("IsMember", mock.Anything, 5, 7).Return(false, nil)

	rec := f.do(http.MethodGet, "/groups/5/messages", nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	f.messages.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestPostGroupMessage(t *testing.T) {
	f := newGroupFixture(t)
	msg := models.GroupMessage{ID: 21, GroupID: 5, SenderID: 7, Content: "meeting at 6"}
	f.groups.On("IsMember", mock.Anything, 5, 7).Return(true, nil)
	f.messages.On("Create", mock.Anything, 5, 7, "meeting at 6").Return(msg, nil)

	rec := f.do(http.MethodPost, "/groups/5/messages", gin.H{"text": "meeting at 6"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.GroupMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 21, got.ID)
	f.messages.AssertExpectations(t)
}

func TestMarkGroupReadIdempotent(t *testing.T) {
	f := newGroupFixture(t)
	f.groups.On("IsMember", mock.Anything, 5, 7).Return(true, nil)
	f.messages.On("MarkAllRead", mock.Anything, 5, 7).Return(int64(0), nil)

	rec := f.do(http.MethodPost, "/groups/5/read", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"marked":0`)
}

func TestListMembersResolvesNames(t *testing.T) {
	f := newGroupFixture(t)
	f.groups.On("IsMember", mock.Anything, 5, 7).Return(true, nil)
	f.groups.On("ListMembers", mock.Anything, 5).Return([]models.GroupMember{
		{GroupID: 5, UserID: 7, Role: models.RoleAdmin},
		{GroupID: 5, UserID: 12, Role: models.RoleMember},
	}, nil)
	f.users.On("BulkUsernames", mock.Anything, []int{7, 12}).Return(map[int]string{7: "lena", 12: "marko"}, nil)

	rec := f.do(http.MethodGet, "/groups/5/members", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lena")
	assert.Contains(t, rec.Body.String(), "marko")
	f.users.AssertExpectations(t)
}
