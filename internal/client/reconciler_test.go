package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-chat/internal/models"
)

func TestConfirmReplacesOptimisticEntry(t *testing.T) {
	tl := NewTimeline()

	tempID := tl.AppendLocal(7, 12, "hey")
	require.Equal(t, 1, tl.Pending())

	tl.Confirm(tempID, models.Message{ID: 41, RoomID: 3, SenderID: 7, RecipientID: 12, Content: "hey", CreatedAt: time.Now()})

	msgs := tl.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, 41, msgs[0].ID)
	assert.Equal(t, 0, tl.Pending())
}

func TestRemoteEchoDoesNotDuplicatePendingSend(t *testing.T) {
	tl := NewTimeline()

	tempID := tl.AppendLocal(7, 12, "hey")

	// The socket echo of our own send lands before the REST confirm.
	echo := models.Message{ID: 41, RoomID: 3, SenderID: 7, RecipientID: 12, Content: "hey", CreatedAt: time.Now()}
	tl.ApplyRemote(echo)
	require.Len(t, tl.Messages(), 1)
	assert.Equal(t, 0, tl.Pending())

	// The late confirm must not re-add it either.
	tl.Confirm(tempID, echo)
	require.Len(t, tl.Messages(), 1)
}

func TestApplyRemoteDropsKnownIDs(t *testing.T) {
	tl := NewTimeline()

	msg := models.Message{ID: 41, SenderID: 12, RecipientID: 7, Content: "hi", CreatedAt: time.Now()}
	tl.ApplyRemote(msg)
	tl.ApplyRemote(msg)

	assert.Len(t, tl.Messages(), 1)
}

func TestMessagesOrderedByTimestampThenID(t *testing.T) {
	tl := NewTimeline()

	base := time.Now()
	tl.ApplyRemote(models.Message{ID: 2, SenderID: 12, RecipientID: 7, Content: "b", CreatedAt: base})
	tl.ApplyRemote(models.Message{ID: 1, SenderID: 12, RecipientID: 7, Content: "a", CreatedAt: base})
	tl.ApplyRemote(models.Message{ID: 3, SenderID: 12, RecipientID: 7, Content: "c", CreatedAt: base.Add(-time.Minute)})

	msgs := tl.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []int{3, 1, 2}, []int{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestInterleavedRemoteAndLocalSends(t *testing.T) {
	tl := NewTimeline()

	tl.ApplyRemote(models.Message{ID: 1, SenderID: 12, RecipientID: 7, Content: "ping", CreatedAt: time.Now().Add(-time.Second)})
	tempID := tl.AppendLocal(7, 12, "pong")
	tl.ApplyRemote(models.Message{ID: 3, SenderID: 12, RecipientID: 7, Content: "still there?", CreatedAt: time.Now().Add(time.Second)})
	tl.Confirm(tempID, models.Message{ID: 2, SenderID: 7, RecipientID: 12, Content: "pong", CreatedAt: time.Now()})

	msgs := tl.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{msgs[0].ID, msgs[1].ID, msgs[2].ID})
	assert.Equal(t, 0, tl.Pending())
}
