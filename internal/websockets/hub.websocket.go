package websockets

import (
	"sync"
)

const (
	STATUS_UNAUTHENTICATED int32 = iota
	STATUS_AUTHENTICATED
	STATUS_CLOSED
)

type Hub struct {
	register   chan *Client
	unregister chan *Client
	clients    map[string]*Client
	mutex      sync.RWMutex
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case client := <-h.register:
			m.registerClient(client)
		case client := <-h.unregister:
			m.unregisterClient(client)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.hub.mutex.Lock()
	m.hub.clients[client.ID] = client
	count := len(m.hub.clients)
	m.hub.mutex.Unlock()

	m.log.Function("registerClient").Info("Client registered", "clientID", client.ID, "clients", count)
}

func (m *Manager) unregisterClient(client *Client) {
	m.hub.mutex.Lock()
	_, ok := m.hub.clients[client.ID]
	delete(m.hub.clients, client.ID)
	m.hub.mutex.Unlock()

	if ok {
		client.close()
		m.log.Function("unregisterClient").Info("Client unregistered", "clientID", client.ID)
	}
}

// broadcastMessage never blocks on a slow client; its message is dropped.
func (h *Hub) broadcastMessage(message Message, m *Manager) int {
	log := m.log.Function("broadcastMessage")

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	sent := 0
	for _, client := range h.clients {
		if client.Status() != STATUS_AUTHENTICATED {
			continue
		}
		if client.enqueue(message) {
			sent++
		} else {
			log.Warn("client send buffer full, dropping message", "clientID", client.ID, "messageID", message.ID)
		}
	}

	log.Debug("Broadcast complete", "messageID", message.ID, "sentTo", sent, "clients", len(h.clients))
	return sent
}
