package assistant

import (
	"github.com/capitalize-ai/voice-assistant/internal/model"
)

// DefaultContextCapacity is how many turns a conversation remembers.
const DefaultContextCapacity = 5

// ContextStore is a fixed-size ring of recent conversation entries.
// The oldest entry is evicted once capacity is reached. Not safe for
// concurrent use; Conversation serializes access.
type ContextStore struct {
	buf   []model.ConversationEntry
	start int
	size  int
}

// NewContextStore creates a store holding at most capacity entries.
func NewContextStore(capacity int) *ContextStore {
	if capacity <= 0 {
		capacity = DefaultContextCapacity
	}
	return &ContextStore{buf: make([]model.ConversationEntry, capacity)}
}

// Append adds an entry at the tail, dropping the head when full.
func (c *ContextStore) Append(e model.ConversationEntry) {
	if c.size < len(c.buf) {
		c.buf[(c.start+c.size)%len(c.buf)] = e
		c.size++
		return
	}
	c.buf[c.start] = e
	c.start = (c.start + 1) % len(c.buf)
}

// Last returns the most recent entry.
func (c *ContextStore) Last() (model.ConversationEntry, bool) {
	if c.size == 0 {
		return model.ConversationEntry{}, false
	}
	return c.buf[(c.start+c.size-1)%len(c.buf)], true
}

// LastN returns up to n most recent entries, oldest first.
func (c *ContextStore) LastN(n int) []model.ConversationEntry {
	if n > c.size {
		n = c.size
	}
	if n <= 0 {
		return []model.ConversationEntry{}
	}
	out := make([]model.ConversationEntry, n)
	for i := 0; i < n; i++ {
		out[i] = c.buf[(c.start+c.size-n+i)%len(c.buf)]
	}
	return out
}

// Entries returns all retained entries in insertion order.
func (c *ContextStore) Entries() []model.ConversationEntry {
	return c.LastN(c.size)
}

// Len returns the number of retained entries.
func (c *ContextStore) Len() int {
	return c.size
}

// Clear forgets every entry.
func (c *ContextStore) Clear() {
	for i := range c.buf {
		c.buf[i] = model.ConversationEntry{}
	}
	c.start = 0
	c.size = 0
}
