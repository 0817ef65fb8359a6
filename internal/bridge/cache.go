package bridge

import (
	"sync"

	"github.com/iambrandonn/dailyorch/internal/protocol"
)

// Cache holds the most recent pushed state per session and key
type Cache struct {
	mu   sync.RWMutex
	data map[string]map[string]protocol.Body
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{data: make(map[string]map[string]protocol.Body)}
}

// Get returns the cached body for a session key
func (c *Cache) Get(sessionID, key string) (protocol.Body, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	body, ok := c.data[sessionID][key]
	return body, ok
}

// Set replaces the cached body for a session key
func (c *Cache) Set(sessionID, key string, body protocol.Body) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data[sessionID] == nil {
		c.data[sessionID] = make(map[string]protocol.Body)
	}
	c.data[sessionID][key] = body
}
