package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
)

// RoomRepositoryMock mocks repositories.RoomRepository.
type RoomRepositoryMock struct {
	mock.Mock
}

var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)

func (m *RoomRepositoryMock) Resolve(ctx context.Context, userA int, userB int) (models.Room, error) {
	args := m.Called(ctx, userA, userB)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *RoomRepositoryMock) Lookup(ctx context.Context, userA int, userB int) (models.Room, error) {
	args := m.Called(ctx, userA, userB)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID int) (models.Room, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *RoomRepositoryMock) IsParticipant(ctx context.Context, roomID int, userID int) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

// MessageRepositoryMock mocks repositories.MessageRepository.
type MessageRepositoryMock struct {
	mock.Mock
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)

func (m *MessageRepositoryMock) Create(ctx context.Context, roomID int, senderID int, recipientID int, content string) (models.Message, error) {
	args := m.Called(ctx, roomID, senderID, recipientID, content)
	return args.Get(0).(models.Message), args.Error(1)
}

func (m *MessageRepositoryMock) ListByRoom(ctx context.Context, roomID int) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MessageRepositoryMock) ListConversations(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConversationSummary), args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, roomID int, userID int) (int64, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	return args.Get(0).(models.Message), args.Error(1)
}

// GroupRepositoryMock mocks repositories.GroupRepository.
type GroupRepositoryMock struct {
	mock.Mock
}

var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, ownerID int, name string, memberIDs []int) (models.Group, error) {
	args := m.Called(ctx, ownerID, name, memberIDs)
	return args.Get(0).(models.Group), args.Error(1)
}

func (m *GroupRepositoryMock) ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GroupSummary), args.Error(1)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(models.Group), args.Error(1)
}

func (m *GroupRepositoryMock) ListMembers(ctx context.Context, groupID int) ([]models.GroupMember, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GroupMember), args.Error(1)
}

func (m *GroupRepositoryMock) MemberIDs(ctx context.Context, groupID int) ([]int, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

// GroupMessageRepositoryMock mocks repositories.GroupMessageRepository.
type GroupMessageRepositoryMock struct {
	mock.Mock
}

var _ repositories.GroupMessageRepository = (*GroupMessageRepositoryMock)(nil)

func (m *GroupMessageRepositoryMock) Create(ctx context.Context, groupID int, senderID int, content string) (models.GroupMessage, error) {
	args := m.Called(ctx, groupID, senderID, content)
	return args.Get(0).(models.GroupMessage), args.Error(1)
}

func (m *GroupMessageRepositoryMock) List(ctx context.Context, groupID int) ([]models.GroupMessage, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GroupMessage), args.Error(1)
}

func (m *GroupMessageRepositoryMock) MarkAllRead(ctx context.Context, groupID int, userID int) (int64, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *GroupMessageRepositoryMock) UnreadCount(ctx context.Context, groupID int, userID int) (int, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Int(0), args.Error(1)
}

// ModerationRepositoryMock mocks repositories.ModerationRepository.
type ModerationRepositoryMock struct {
	mock.Mock
}

var _ repositories.ModerationRepository = (*ModerationRepositoryMock)(nil)

func (m *ModerationRepositoryMock) CanSend(ctx context.Context, senderID int, recipientID int) (repositories.Verdict, error) {
	args := m.Called(ctx, senderID, recipientID)
	return args.Get(0).(repositories.Verdict), args.Error(1)
}

func (m *ModerationRepositoryMock) Block(ctx context.Context, blockerID int, blockedID int) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *ModerationRepositoryMock) Unblock(ctx context.Context, blockerID int, blockedID int) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *ModerationRepositoryMock) Mute(ctx context.Context, muterID int, mutedID int, until *time.Time) error {
	args := m.Called(ctx, muterID, mutedID, until)
	return args.Error(0)
}

func (m *ModerationRepositoryMock) Unmute(ctx context.Context, muterID int, mutedID int) error {
	args := m.Called(ctx, muterID, mutedID)
	return args.Error(0)
}

func (m *ModerationRepositoryMock) IsMuted(ctx context.Context, muterID int, mutedID int) (bool, error) {
	args := m.Called(ctx, muterID, mutedID)
	return args.Bool(0), args.Error(1)
}

// NotificationRepositoryMock mocks repositories.NotificationRepository.
type NotificationRepositoryMock struct {
	mock.Mock
}

var _ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)

func (m *NotificationRepositoryMock) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(models.Notification), args.Error(1)
}

func (m *NotificationRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, notificationID int, userID int) error {
	args := m.Called(ctx, notificationID, userID)
	return args.Error(0)
}

// UserRepositoryMock mocks repositories.UserRepository.
type UserRepositoryMock struct {
	mock.Mock
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *UserRepositoryMock) BulkUsernames(ctx context.Context, ids []int) (map[int]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]string), args.Error(1)
}
