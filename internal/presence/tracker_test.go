package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectFirstConnectionGoesOnline(t *testing.T) {
	tr := NewTracker()

	require.True(t, tr.Connect(1, "a"))
	assert.True(t, tr.IsOnline(1))
}

func TestSecondConnectionNoTransition(t *testing.T) {
	tr := NewTracker()

	require.True(t, tr.Connect(1, "a"))
	require.False(t, tr.Connect(1, "b"))

	// Dropping one of two tabs keeps the user online with no transition.
	require.False(t, tr.Disconnect(1, "a"))
	assert.True(t, tr.IsOnline(1))

	// Dropping the last one is exactly one offline transition.
	require.True(t, tr.Disconnect(1, "b"))
	assert.False(t, tr.IsOnline(1))
}

func TestDisconnectUnknownConnectionIsNoop(t *testing.T) {
	tr := NewTracker()

	require.False(t, tr.Disconnect(1, "ghost"))

	tr.Connect(1, "a")
	require.False(t, tr.Disconnect(1, "ghost"))
	assert.True(t, tr.IsOnline(1))
}

func TestLastSeenUpdatedOnTransitions(t *testing.T) {
	tr := NewTracker()
	current := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return current }

	_, ok := tr.LastSeen(1)
	require.False(t, ok)

	tr.Connect(1, "a")
	seen, ok := tr.LastSeen(1)
	require.True(t, ok)
	assert.Equal(t, current, seen)

	current = current.Add(5 * time.Minute)
	tr.Disconnect(1, "a")
	seen, ok = tr.LastSeen(1)
	require.True(t, ok)
	assert.Equal(t, current, seen)
}

func TestOnlineSubset(t *testing.T) {
	tr := NewTracker()
	tr.Connect(1, "a")
	tr.Connect(3, "b")

	assert.Equal(t, []int{1, 3}, tr.OnlineSubset([]int{1, 2, 3, 4}))
	assert.Empty(t, tr.OnlineSubset([]int{2, 4}))
}
