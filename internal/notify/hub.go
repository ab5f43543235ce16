package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/UkralStul/pulse-social/internal/domain"
)

// Hub рассылает уведомления живым подписчикам, например websocket-соединениям.
type Hub struct {
	mu sync.RWMutex
	//   map[userID] map[subscriberID] channel
	subs map[string]map[string]chan domain.Notification
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[string]chan domain.Notification)}
}

// Subscribe регистрирует подписчика для userID. Канал закрывается, когда
// ctx завершен.
func (h *Hub) Subscribe(ctx context.Context, userID string) <-chan domain.Notification {
	ch := make(chan domain.Notification, 8)
	subID := uuid.NewString()

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[string]chan domain.Notification)
	}
	h.subs[userID][subID] = ch
	h.mu.Unlock()

	// Горутина для очистки при отключении клиента
	go func() {
		<-ctx.Done()
		h.mu.Lock()
		if userSubs, ok := h.subs[userID]; ok {
			delete(userSubs, subID)
			if len(userSubs) == 0 {
				delete(h.subs, userID)
			}
		}
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Subscribers возвращает число живых подписок userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Deliver не блокируется: подписчик, который не успевает читать, пропускает событие.
func (h *Hub) Deliver(_ context.Context, n domain.Notification) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[n.TargetID] {
		select {
		case ch <- n:
		default:
		}
	}
	return nil
}
