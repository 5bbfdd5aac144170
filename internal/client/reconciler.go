package client

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"campus-chat/internal/models"
)

// Entry is one message in a reconciled timeline. Pending entries carry a
// temp id and no server id yet.
type Entry struct {
	TempID  string
	Message models.Message
	Pending bool
}

// Timeline merges optimistic local sends with the server's confirmed and
// broadcast messages, keeping exactly one entry per logical message. It
// mirrors what a connected client does with its in-memory view: append
// locally on send, replace the optimistic entry when the server confirms,
// and drop socket echoes of messages it already holds.
type Timeline struct {
	mu      sync.Mutex
	entries []Entry
	byID    map[int]int    // server message id -> entries index
	byTemp  map[string]int // temp id -> entries index
	seq     int
	now     func() time.Time
}

// NewTimeline constructs an empty Timeline.
func NewTimeline() *Timeline {
	return &Timeline{
		byID:   map[int]int{},
		byTemp: map[string]int{},
		now:    time.Now,
	}
}

// AppendLocal adds an optimistic entry for a message the user just sent
// and returns its temp id. The entry shows immediately with a local
// timestamp until the server confirms.
func (t *Timeline) AppendLocal(senderID, recipientID int, text string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	tempID := fmt.Sprintf("tmp-%d", t.seq)
	t.entries = append(t.entries, Entry{
		TempID: tempID,
		Message: models.Message{
			SenderID:    senderID,
			RecipientID: recipientID,
			Content:     text,
			CreatedAt:   t.now(),
		},
		Pending: true,
	})
	t.byTemp[tempID] = len(t.entries) - 1
	return tempID
}

// Confirm replaces the optimistic entry with the server's persisted row.
// An unknown temp id means the entry was already reconciled through a
// socket echo; the confirmed row is then applied as remote so it is not
// lost.
func (t *Timeline) Confirm(tempID string, msg models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.byTemp[tempID]
	if !ok {
		t.applyRemoteLocked(msg)
		return
	}
	delete(t.byTemp, tempID)

	if existing, seen := t.byID[msg.ID]; seen && existing != idx {
		// A socket echo landed first; the optimistic copy is the duplicate.
		t.removeLocked(idx)
		return
	}

	t.entries[idx] = Entry{Message: msg}
	t.byID[msg.ID] = idx
}

// ApplyRemote merges a message received over the socket. Messages already
// present by server id are dropped. An echo of the caller's own pending
// send (same sender, recipient and text) reconciles that entry instead of
// duplicating it.
func (t *Timeline) ApplyRemote(msg models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applyRemoteLocked(msg)
}

func (t *Timeline) applyRemoteLocked(msg models.Message) {
	if _, seen := t.byID[msg.ID]; seen {
		return
	}

	for i, e := range t.entries {
		if e.Pending && e.Message.SenderID == msg.SenderID &&
			e.Message.RecipientID == msg.RecipientID && e.Message.Content == msg.Content {
			delete(t.byTemp, e.TempID)
			t.entries[i] = Entry{Message: msg}
			t.byID[msg.ID] = i
			return
		}
	}

	t.entries = append(t.entries, Entry{Message: msg})
	t.byID[msg.ID] = len(t.entries) - 1
}

func (t *Timeline) removeLocked(idx int) {
	t.entries = append(t.entries[:idx], t.entries[idx+1:]...)
	t.reindexLocked()
}

func (t *Timeline) reindexLocked() {
	t.byID = map[int]int{}
	t.byTemp = map[string]int{}
	for i, e := range t.entries {
		if e.Pending {
			t.byTemp[e.TempID] = i
		} else {
			t.byID[e.Message.ID] = i
		}
	}
}

// Messages returns the timeline ordered by (created_at, id), pending
// entries sorting by their local timestamp.
func (t *Timeline) Messages() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.Message, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Message
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Pending reports how many entries still await server confirmation.
func (t *Timeline) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, e := range t.entries {
		if e.Pending {
			count++
		}
	}
	return count
}
