package websockets

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"martinspocos/internal/events"
	. "martinspocos/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	PING_INTERVAL     = 30 * time.Second
	PONG_TIMEOUT      = 60 * time.Second
	WRITE_TIMEOUT     = 10 * time.Second
	MAX_MESSAGE_SIZE  = 64 * 1024
	SEND_CHANNEL_SIZE = 64

	SYSTEM_CHANNEL = "system"
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Channel   string         `json:"channel,omitempty"`
	Action    string         `json:"action,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Authenticator resolves the token a client sends in its auth_response.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

type Subscriber interface {
	Subscribe(channel events.Channel, handler events.EventHandler) error
}

type Client struct {
	ID         string
	Connection *websocket.Conn
	Manager    *Manager

	status    atomic.Int32
	principal atomic.Pointer[Principal]
	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
}

type Manager struct {
	hub  *Hub
	auth Authenticator
	log  logger.Logger
}

func New(eventBus Subscriber, auth Authenticator) (*Manager, error) {
	log := logger.New("websockets")

	manager := newManager(auth)

	log.Function("New").Info("Starting websocket hub")
	go manager.hub.run(manager)

	if err := eventBus.Subscribe(events.LIFECYCLE_CHANNEL, manager.forwardLifecycleEvent); err != nil {
		return nil, log.Function("New").Err("failed to subscribe to lifecycle events", err)
	}

	return manager, nil
}

func newManager(auth Authenticator) *Manager {
	return &Manager{
		hub: &Hub{
			register:   make(chan *Client),
			unregister: make(chan *Client),
			clients:    make(map[string]*Client),
		},
		auth: auth,
		log:  logger.New("websockets"),
	}
}

func newClient(m *Manager, conn *websocket.Conn) *Client {
	return &Client{
		ID:         uuid.NewString(),
		Connection: conn,
		Manager:    m,
		send:       make(chan Message, SEND_CHANNEL_SIZE),
		done:       make(chan struct{}),
	}
}

func (c *Client) Status() int32 {
	return c.status.Load()
}

func (c *Client) Principal() *Principal {
	return c.principal.Load()
}

// close stops the write pump, which in turn closes the connection.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) enqueue(message Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (m *Manager) HandleWebSocket(conn *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")

	client := newClient(m, conn)
	if err := client.sendAuthRequest(); err != nil {
		if err := conn.Close(); err != nil {
			log.Er("failed to close connection", err)
		}
		return
	}

	m.hub.register <- client
	defer func() {
		m.hub.unregister <- client
		if err := conn.Close(); err != nil {
			log.Debug("connection already closed", "clientID", client.ID, "error", err)
		}
		log.Info("Client disconnected", "clientID", client.ID)
	}()

	client.startAuthTimeout()
	go client.readPump()
	client.writePump()
}

// forwardLifecycleEvent pushes a bus event to every authenticated staff client.
func (m *Manager) forwardLifecycleEvent(event events.Event) error {
	m.hub.broadcastMessage(Message{
		ID:        event.ID,
		Type:      string(event.Type),
		Channel:   event.Channel.String(),
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}, m)
	return nil
}

func (c *Client) readPump() {
	log := c.Manager.log.Function("readPump")
	defer c.close()

	c.Connection.SetReadLimit(MAX_MESSAGE_SIZE)
	if err := c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT)); err != nil {
		log.Er("failed to set read deadline", err, "clientID", c.ID)
	}
	c.Connection.SetPongHandler(func(string) error {
		return c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))
	})

	for {
		var message Message
		if err := c.Connection.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				log.Er("unexpected close", err, "clientID", c.ID)
			}
			return
		}

		c.routeMessage(message)
	}
}

func (c *Client) routeMessage(message Message) {
	log := c.Manager.log.Function("routeMessage")

	if message.Type == string(events.AUTH_RESPONSE) {
		c.handleAuthResponse(message)
		return
	}

	if c.Status() != STATUS_AUTHENTICATED {
		c.handleUnauthenticatedMessage(message)
		return
	}

	switch events.MessageType(message.Type) {
	case events.PING:
		c.enqueue(Message{
			ID:        uuid.NewString(),
			Type:      string(events.PONG),
			Channel:   SYSTEM_CHANNEL,
			Timestamp: time.Now().UTC(),
		})
	default:
		log.Debug("ignoring client message", "clientID", c.ID, "type", message.Type)
	}
}

func (c *Client) writePump() {
	log := c.Manager.log.Function("writePump")

	ticker := time.NewTicker(PING_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message, ok := <-c.send:
			if !ok {
				_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline", err, "clientID", c.ID)
			}
			if err := c.Connection.WriteJSON(message); err != nil {
				log.Er("websocket write failed", err, "clientID", c.ID)
				return
			}

		case <-ticker.C:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline for ping", err, "clientID", c.ID)
			}
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
