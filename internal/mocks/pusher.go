package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"campus-chat/internal/models"
	"campus-chat/internal/notify"
	"campus-chat/internal/observability"
)

// PusherMock mocks notify.Pusher.
type PusherMock struct {
	mock.Mock
}

var _ notify.Pusher = (*PusherMock)(nil)

func (m *PusherMock) PushNotification(userID int, n models.Notification) error {
	args := m.Called(userID, n)
	return args.Error(0)
}

// PublisherMock mocks observability.Publisher.
type PublisherMock struct {
	mock.Mock
}

var _ observability.Publisher = (*PublisherMock)(nil)

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}
