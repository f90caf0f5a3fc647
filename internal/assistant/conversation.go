package assistant

import (
	"context"
	"sync"

	"github.com/capitalize-ai/voice-assistant/internal/model"
)

// TurnObserver is notified after every routed turn.
type TurnObserver interface {
	TurnRouted(ctx context.Context, userID, utterance string, reply Reply)
}

// Conversation is one user's dialogue with the assistant. Turns are
// processed one at a time.
type Conversation struct {
	userID   string
	router   *Router
	gateway  Gateway
	observer TurnObserver

	mu      sync.Mutex
	history *ContextStore
}

// NewConversation creates a conversation routed through router against gw.
func NewConversation(userID string, router *Router, gw Gateway, observer TurnObserver) *Conversation {
	return &Conversation{
		userID:   userID,
		router:   router,
		gateway:  gw,
		observer: observer,
		history:  NewContextStore(DefaultContextCapacity),
	}
}

// Handle routes one utterance and records it in the conversation history.
func (c *Conversation) Handle(ctx context.Context, utterance string) Reply {
	c.mu.Lock()
	reply := c.router.Route(ctx, utterance, c.history, c.gateway)
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.TurnRouted(ctx, c.userID, utterance, reply)
	}
	return reply
}

// Interpret routes an utterance and returns only the reply text.
func (c *Conversation) Interpret(ctx context.Context, utterance string) string {
	return c.Handle(ctx, utterance).Text
}

// History returns the retained turns, oldest first.
func (c *Conversation) History() []model.ConversationEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Entries()
}

// Reset forgets the conversation history.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Clear()
}

// Conversations hands out one Conversation per user.
type Conversations struct {
	router   *Router
	gateways GatewayFactory
	observer TurnObserver

	mu     sync.RWMutex
	byUser map[string]*Conversation
}

// NewConversations creates a registry. observer may be nil.
func NewConversations(router *Router, gateways GatewayFactory, observer TurnObserver) *Conversations {
	return &Conversations{
		router:   router,
		gateways: gateways,
		observer: observer,
		byUser:   make(map[string]*Conversation),
	}
}

// Get returns the user's conversation, creating it on first use.
func (c *Conversations) Get(userID string) *Conversation {
	c.mu.RLock()
	conv, ok := c.byUser[userID]
	c.mu.RUnlock()
	if ok {
		return conv
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if conv, ok := c.byUser[userID]; ok {
		return conv
	}
	conv = NewConversation(userID, c.router, c.gateways.ForUser(userID), c.observer)
	c.byUser[userID] = conv
	return conv
}
