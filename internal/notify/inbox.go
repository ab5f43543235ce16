package notify

import (
	"context"
	"sync"

	"github.com/UkralStul/pulse-social/internal/domain"
)

const DefaultInboxSize = 50

// Inbox keeps the most recent notifications per user in memory.
type Inbox struct {
	mu    sync.RWMutex
	size  int
	items map[string][]domain.Notification // oldest first
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{size: size, items: make(map[string][]domain.Notification)}
}

func (b *Inbox) Deliver(_ context.Context, n domain.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := append(b.items[n.TargetID], n)
	if len(list) > b.size {
		list = append([]domain.Notification(nil), list[len(list)-b.size:]...)
	}
	b.items[n.TargetID] = list
	return nil
}

// List returns the user's notifications, newest first.
func (b *Inbox) List(userID string) []domain.Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()

	list := b.items[userID]
	out := make([]domain.Notification, len(list))
	for i, n := range list {
		out[len(list)-1-i] = n
	}
	return out
}

// Unread counts notifications not yet marked read.
func (b *Inbox) Unread(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, item := range b.items[userID] {
		if !item.Read {
			n++
		}
	}
	return n
}

// MarkRead marks one notification read, or all of them when id is empty. It
// reports whether anything changed.
func (b *Inbox) MarkRead(userID, id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	changed := false
	list := b.items[userID]
	for i := range list {
		if (id == "" || list[i].ID == id) && !list[i].Read {
			list[i].Read = true
			changed = true
		}
	}
	return changed
}
