package realtime

import (
	"context"
	"sync"
	"time"
)

// Alert is the JSON message pushed to subscribers.
type Alert struct {
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	At      time.Time `json:"at"`
}

type writer interface {
	WriteJSON(v any) error
	Close() error
}

// AlertHub fans planning alerts out to every connected subscriber.
// It satisfies notify.Notifier.
type AlertHub struct {
	mu    sync.RWMutex
	conns map[writer]struct{}
	now   func() time.Time
}

func NewAlertHub() *AlertHub {
	return &AlertHub{conns: make(map[writer]struct{}), now: time.Now}
}

func (h *AlertHub) Register(conn writer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *AlertHub) Unregister(conn writer) {
	h.mu.Lock()
	_, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

func (h *AlertHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Notify broadcasts the alert. Subscribers that fail to receive it are dropped;
// a slow client never fails the caller.
func (h *AlertHub) Notify(_ context.Context, subject, body string) error {
	msg := Alert{Subject: subject, Body: body, At: h.now().UTC()}

	h.mu.RLock()
	conns := make([]writer, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	// Writes can block up to the write deadline; keep the lock free meanwhile.
	var dead []writer
	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			dead = append(dead, conn)
		}
	}

	for _, conn := range dead {
		h.Unregister(conn)
	}
	return nil
}
