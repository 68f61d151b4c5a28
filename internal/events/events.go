package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type Channel string

func (c Channel) String() string {
	return string(c)
}

const (
	// LIFECYCLE_CHANNEL carries request and contract lifecycle changes to
	// every API instance.
	LIFECYCLE_CHANNEL Channel = "lifecycle"
)

type MessageType string

const (
	PING          MessageType = "ping"
	PONG          MessageType = "pong"
	ERROR         MessageType = "error"
	AUTH_REQUEST  MessageType = "auth_request"
	AUTH_RESPONSE MessageType = "auth_response"
	AUTH_SUCCESS  MessageType = "auth_success"
	AUTH_FAILURE  MessageType = "auth_failure"

	REQUEST_CREATED             MessageType = "request.created"
	REQUEST_UPDATED             MessageType = "request.updated"
	CONTRACT_GENERATED          MessageType = "contract.generated"
	CONTRACT_STATUS_CHANGED     MessageType = "contract.status_changed"
	CONTRACT_SIGNED             MessageType = "contract.signed"
	CONTRACT_SIGNATURE_REMINDER MessageType = "contract.signature_reminder"
)

type Event struct {
	ID        string         `json:"id"`
	Type      MessageType    `json:"type"`
	Channel   Channel        `json:"channel"`
	UserID    *uuid.UUID     `json:"userId,omitempty"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

type EventHandler func(event Event) error

// Publisher is the side controllers and jobs depend on.
type Publisher interface {
	Publish(channel Channel, event Event) error
}

type EventBus struct {
	client    valkey.Client
	logger    logger.Logger
	handlers  map[Channel][]EventHandler
	listening map[Channel]bool
	mutex     sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(client valkey.Client) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventBus{
		client:    client,
		logger:    logger.New("EventBus"),
		handlers:  make(map[Channel][]EventHandler),
		listening: make(map[Channel]bool),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Normalize fills the envelope fields a publisher may leave empty.
func (e Event) Normalize(channel Channel) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Channel == "" {
		e.Channel = channel
	}
	if e.Data == nil {
		e.Data = map[string]any{}
	}
	return e
}

// Publish sends the event through valkey. Local handlers receive it from
// the subscription like every other instance, so it is delivered once.
func (eb *EventBus) Publish(channel Channel, event Event) error {
	log := eb.logger.Function("Publish")

	event = event.Normalize(channel)

	eventData, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "eventID", event.ID)
	}

	ctx, cancel := context.WithTimeout(eb.ctx, 5*time.Second)
	defer cancel()

	err = eb.client.Do(ctx, eb.client.B().Publish().Channel(channel.String()).Message(string(eventData)).Build()).
		Error()
	if err != nil {
		return log.Err(
			"failed to publish event to valkey",
			err,
			"channel", channel,
			"eventID", event.ID,
		)
	}

	log.Info("Event published", "channel", channel, "eventID", event.ID, "eventType", event.Type)
	return nil
}

func (eb *EventBus) Subscribe(channel Channel, handler EventHandler) error {
	log := eb.logger.Function("Subscribe")

	eb.mutex.Lock()
	eb.handlers[channel] = append(eb.handlers[channel], handler)
	startListener := !eb.listening[channel]
	eb.listening[channel] = true
	eb.mutex.Unlock()

	log.Info("Handler subscribed to channel", "channel", channel)

	if startListener {
		go eb.listenToChannel(channel)
	}

	return nil
}

func (eb *EventBus) notifyLocalHandlers(channel Channel, event Event) {
	log := eb.logger.Function("notifyLocalHandlers")

	eb.mutex.RLock()
	handlers := append([]EventHandler(nil), eb.handlers[channel]...)
	eb.mutex.RUnlock()

	for i, handler := range handlers {
		go func(h EventHandler, handlerIndex int) {
			if err := h(event); err != nil {
				log.Er(
					"handler failed",
					err,
					"channel", channel,
					"eventID", event.ID,
					"handlerIndex", handlerIndex,
				)
			}
		}(handler, i)
	}
}

func (eb *EventBus) handleMessage(channel Channel, message string) {
	log := eb.logger.Function("handleMessage")

	var event Event
	if err := json.Unmarshal([]byte(message), &event); err != nil {
		log.Er("failed to unmarshal event", err, "channel", channel)
		return
	}

	log.Debug("Received event", "channel", channel, "eventID", event.ID, "eventType", event.Type)
	eb.notifyLocalHandlers(channel, event)
}

func (eb *EventBus) listenToChannel(channel Channel) {
	log := eb.logger.Function("listenToChannel")

	log.Info("Starting to listen to channel", "channel", channel)

	err := eb.client.Receive(
		eb.ctx,
		eb.client.B().Subscribe().Channel(channel.String()).Build(),
		func(msg valkey.PubSubMessage) {
			eb.handleMessage(channel, msg.Message)
		},
	)
	if err != nil && eb.ctx.Err() == nil {
		log.Er("failed to listen to channel", err, "channel", channel)
	}

	eb.mutex.Lock()
	eb.listening[channel] = false
	eb.mutex.Unlock()
}

func (eb *EventBus) Close() error {
	eb.cancel()
	eb.logger.Function("Close").Info("EventBus closed")
	return nil
}

// Notify publishes a lifecycle event and only logs a failure. Lifecycle
// notifications never fail the operation that produced them.
func Notify(p Publisher, log logger.Logger, eventType MessageType, data map[string]any) {
	if p == nil {
		return
	}
	if err := p.Publish(LIFECYCLE_CHANNEL, Event{Type: eventType, Data: data}); err != nil {
		log.Warn("failed to publish lifecycle event", "eventType", eventType, "error", err)
	}
}
