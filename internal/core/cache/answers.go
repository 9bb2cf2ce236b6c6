// Package cache holds the per-tenant answer memory used by the "in N words"
// refinement flow. Only the most recent answer per tenant is kept; a new
// answer for the same tenant overwrites the previous one.
package cache

import "sync"

// DefaultTenantKey is the slot used when a request carries no tenant id.
const DefaultTenantKey = "default"

// AnswerCache is safe for concurrent use. Construct one per process and
// inject it wherever it is needed; handlers must not reach for a global.
type AnswerCache struct {
	mu   sync.Mutex
	last map[string]string
}

func NewAnswerCache() *AnswerCache {
	return &AnswerCache{last: make(map[string]string)}
}

// Key normalizes a tenant id to its cache slot.
func Key(tenantID string) string {
	if tenantID == "" {
		return DefaultTenantKey
	}
	return tenantID
}

// Get returns the last stored answer for the tenant, if any.
func (c *AnswerCache) Get(tenantID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	answer, ok := c.last[Key(tenantID)]
	return answer, ok
}

// Set stores the answer as the tenant's most recent one.
func (c *AnswerCache) Set(tenantID, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[Key(tenantID)] = answer
}
