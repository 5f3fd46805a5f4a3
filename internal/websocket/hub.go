package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	TenantID() int32
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections organized by tenant
// It is safe for concurrent use
type Hub struct {
	// tenants maps tenant ID to a map of client ID to client
	tenants map[int32]map[string]ClientInterface
	mu      sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		tenants: make(map[int32]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under its tenant
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tenantID := client.TenantID()
	clientID := client.ID()

	if h.tenants[tenantID] == nil {
		h.tenants[tenantID] = make(map[string]ClientInterface)
	}
	h.tenants[tenantID][clientID] = client

	log.Debug().
		Int32("tenant_id", tenantID).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tenantID := client.TenantID()
	clientID := client.ID()

	if clients, ok := h.tenants[tenantID]; ok {
		if _, exists := clients[clientID]; exists {
			delete(clients, clientID)
			if len(clients) == 0 {
				delete(h.tenants, tenantID)
			}

			log.Debug().
				Int32("tenant_id", tenantID).
				Str("client_id", clientID).
				Msg("WebSocket client unregistered")
		}
	}
}

// Broadcast sends an event to all clients of a specific tenant
func (h *Hub) Broadcast(tenantID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("tenant_id", tenantID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clients, ok := h.tenants[tenantID]
	if !ok || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy clients to avoid holding lock during send
	clientsCopy := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	for _, client := range clientsCopy {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Int32("tenant_id", tenantID).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}
}

// ClientCount returns the number of clients connected for a tenant
func (h *Hub) ClientCount(tenantID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.tenants[tenantID]; ok {
		return len(clients)
	}
	return 0
}
