package thread

import (
	"context"
	"sync"
)

// StoreFactory builds the backing store for a tenant's thread.
type StoreFactory func(tenant string) Store

// Hub hands out one Manager per tenant, creating it lazily on first use.
type Hub struct {
	factory     StoreFactory
	maxMessages int
	maxContext  int

	mu       sync.Mutex
	managers map[string]*Manager
}

func NewHub(factory StoreFactory, maxMessages, maxContext int) *Hub {
	return &Hub{
		factory:     factory,
		maxMessages: maxMessages,
		maxContext:  maxContext,
		managers:    make(map[string]*Manager),
	}
}

func (h *Hub) ForTenant(ctx context.Context, tenant string) (*Manager, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m, ok := h.managers[tenant]; ok {
		return m, nil
	}
	m, err := NewManager(ctx, h.factory(tenant), h.maxMessages, h.maxContext)
	if err != nil {
		return nil, err
	}
	h.managers[tenant] = m
	return m, nil
}
