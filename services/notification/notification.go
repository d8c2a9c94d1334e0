package notifsvc

import (
	"sync"

	"github.com/seepmela/mela/core/applicant"
)

// Hub is an in-process fan-out of registration events to subscribed admin
// sessions. Slow subscribers are skipped rather than blocking registration.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan applicant.RegistrationEvent]struct{}
}

var _ applicant.Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[chan applicant.RegistrationEvent]struct{})}
}

// Subscribe returns a buffered event channel and an unsubscribe func.
func (h *Hub) Subscribe() (<-chan applicant.RegistrationEvent, func()) {
	ch := make(chan applicant.RegistrationEvent, 8)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	unsub := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, unsub
}

func (h *Hub) BroadcastRegistration(evt applicant.RegistrationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default: // subscriber buffer full
		}
	}
}
