package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswerCache_TenantIsolation(t *testing.T) {
	c := NewAnswerCache()
	c.Set("acme", "answer for acme")
	c.Set("globex", "answer for globex")

	got, ok := c.Get("acme")
	assert.True(t, ok)
	assert.Equal(t, "answer for acme", got)

	got, ok = c.Get("globex")
	assert.True(t, ok)
	assert.Equal(t, "answer for globex", got)

	_, ok = c.Get("initech")
	assert.False(t, ok)
}

func TestAnswerCache_EmptyTenantUsesDefaultSlot(t *testing.T) {
	c := NewAnswerCache()
	c.Set("", "anonymous answer")

	got, ok := c.Get(DefaultTenantKey)
	assert.True(t, ok)
	assert.Equal(t, "anonymous answer", got)

	got, ok = c.Get("")
	assert.True(t, ok)
	assert.Equal(t, "anonymous answer", got)
}

func TestAnswerCache_LastWriteWins(t *testing.T) {
	c := NewAnswerCache()
	c.Set("acme", "first")
	c.Set("acme", "second")

	got, _ := c.Get("acme")
	assert.Equal(t, "second", got)
}
