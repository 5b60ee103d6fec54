// Package delivery routes run outcomes back to the channel a session
// belongs to.
package delivery

import (
	"fmt"
	"strings"
	"sync"
)

// Handler delivers a message to a session identified by sessionKey.
type Handler func(sessionKey, message string) error

// Registry routes messages to the appropriate delivery handler based on
// session key prefix (e.g. "telegram:", "webhook:"). Scheduled preset runs
// use it to reach the chat their session key names.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for session keys starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = handler
}

// Deliver calls the handler whose prefix matches the session key. When
// several prefixes match, the longest one wins, so "telegram:" and a more
// specific override can coexist.
func (r *Registry) Deliver(sessionKey, message string) error {
	r.mu.RLock()
	var best Handler
	bestLen := -1
	for prefix, handler := range r.handlers {
		if strings.HasPrefix(sessionKey, prefix) && len(prefix) > bestLen {
			best = handler
			bestLen = len(prefix)
		}
	}
	r.mu.RUnlock()

	if best == nil {
		return fmt.Errorf("no delivery handler for session key: %s", sessionKey)
	}
	return best(sessionKey, message)
}
