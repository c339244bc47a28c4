package event

import (
	"slices"
	"sync"

	"github.com/mestresdocafe/backend/internal/domain/shared"
)

// subscriptions maps event types to handlers. Handlers subscribed without
// types receive every event, after the typed ones.
type subscriptions struct {
	mu     sync.RWMutex
	byType map[string][]shared.EventHandler
	all    []shared.EventHandler
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byType: make(map[string][]shared.EventHandler)}
}

func (s *subscriptions) add(handler shared.EventHandler, eventTypes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(eventTypes) == 0 {
		s.all = append(s.all, handler)
		return
	}
	for _, t := range eventTypes {
		if !slices.Contains(s.byType[t], handler) {
			s.byType[t] = append(s.byType[t], handler)
		}
	}
}

func (s *subscriptions) remove(handler shared.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	isTarget := func(h shared.EventHandler) bool { return h == handler }
	s.all = slices.DeleteFunc(s.all, isTarget)
	for t, handlers := range s.byType {
		if handlers = slices.DeleteFunc(handlers, isTarget); len(handlers) == 0 {
			delete(s.byType, t)
		} else {
			s.byType[t] = handlers
		}
	}
}

// handlersFor returns a snapshot safe to range over while others subscribe
func (s *subscriptions) handlersFor(eventType string) []shared.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Concat(s.byType[eventType], s.all)
}

// count returns the number of distinct subscribed handlers
func (s *subscriptions) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[shared.EventHandler]struct{}, len(s.all))
	for _, h := range s.all {
		seen[h] = struct{}{}
	}
	for _, handlers := range s.byType {
		for _, h := range handlers {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}
