package websockets

import (
	"context"
	"time"

	"martinspocos/internal/events"

	"github.com/google/uuid"
)

const AUTH_HANDSHAKE_TIMEOUT = 10 * time.Second

func systemMessage(messageType events.MessageType, action string, data map[string]any) Message {
	return Message{
		ID:        uuid.NewString(),
		Type:      string(messageType),
		Channel:   SYSTEM_CHANNEL,
		Action:    action,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func (c *Client) sendAuthRequest() error {
	log := c.Manager.log.Function("sendAuthRequest")

	if err := c.Connection.WriteJSON(systemMessage(events.AUTH_REQUEST, "authenticate", nil)); err != nil {
		return log.Err("failed to send auth request", err, "clientID", c.ID)
	}

	log.Debug("Auth request sent", "clientID", c.ID)
	return nil
}

func (c *Client) startAuthTimeout() {
	go func() {
		timer := time.NewTimer(AUTH_HANDSHAKE_TIMEOUT)
		defer timer.Stop()

		select {
		case <-c.done:
			return
		case <-timer.C:
		}

		if c.Status() != STATUS_AUTHENTICATED {
			c.Manager.log.Function("startAuthTimeout").
				Info("client did not authenticate in time", "clientID", c.ID)
			c.sendAuthFailure("Authentication timeout")
		}
	}()
}

// handleAuthResponse accepts staff tokens only. The live feed carries every
// customer's requests and contracts.
func (c *Client) handleAuthResponse(message Message) {
	log := c.Manager.log.Function("handleAuthResponse")

	if c.Status() == STATUS_AUTHENTICATED {
		log.Warn("auth response from authenticated client", "clientID", c.ID)
		return
	}

	token, ok := message.Data["token"].(string)
	if !ok || token == "" {
		c.sendAuthFailure("Invalid token format")
		return
	}

	principal, err := c.Manager.auth.Authenticate(context.Background(), token)
	if err != nil {
		log.Info("websocket token rejected", "clientID", c.ID)
		c.sendAuthFailure("Authentication failed")
		return
	}
	if !principal.IsStaff() {
		log.Info("websocket client is not staff", "clientID", c.ID, "principalID", principal.ID)
		c.sendAuthFailure("Staff access required")
		return
	}

	c.principal.Store(principal)
	c.status.Store(STATUS_AUTHENTICATED)

	log.Info("Client authenticated", "clientID", c.ID, "principalID", principal.ID)
	c.enqueue(systemMessage(events.AUTH_SUCCESS, "authenticated", map[string]any{
		"userId": principal.ID.String(),
		"role":   principal.Role,
	}))
}

// sendAuthFailure queues the failure and closes the client shortly after so
// the message can still be written.
func (c *Client) sendAuthFailure(reason string) {
	c.status.Store(STATUS_CLOSED)
	c.enqueue(systemMessage(events.AUTH_FAILURE, "authentication_failed", map[string]any{
		"reason": reason,
	}))

	time.AfterFunc(100*time.Millisecond, c.close)
}

func (c *Client) handleUnauthenticatedMessage(message Message) {
	c.Manager.log.Function("handleUnauthenticatedMessage").
		Warn("blocking message from unauthenticated client", "clientID", c.ID, "type", message.Type)

	c.enqueue(systemMessage(events.AUTH_FAILURE, "authentication_required", map[string]any{
		"reason": "Authentication required",
	}))
}
