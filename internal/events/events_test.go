package events

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEvent_Normalize(t *testing.T) {
	event := Event{Type: CONTRACT_SIGNED}.Normalize(LIFECYCLE_CHANNEL)

	_, err := uuid.Parse(event.ID)
	assert.NoError(t, err)
	assert.Equal(t, LIFECYCLE_CHANNEL, event.Channel)
	assert.False(t, event.Timestamp.IsZero())
	assert.NotNil(t, event.Data)

	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	kept := Event{ID: "abc", Channel: "other", Timestamp: fixed}.Normalize(LIFECYCLE_CHANNEL)
	assert.Equal(t, "abc", kept.ID)
	assert.Equal(t, Channel("other"), kept.Channel)
	assert.Equal(t, fixed, kept.Timestamp)
}

func TestEventBus_HandleMessageFansOut(t *testing.T) {
	bus := New(nil)
	defer bus.Close()

	var wg sync.WaitGroup
	wg.Add(2)

	received := make(chan Event, 2)
	handler := func(event Event) error {
		defer wg.Done()
		received <- event
		return nil
	}
	failing := func(event Event) error {
		defer wg.Done()
		return errors.New("handler failed")
	}

	bus.mutex.Lock()
	bus.handlers[LIFECYCLE_CHANNEL] = []EventHandler{handler, failing}
	bus.mutex.Unlock()

	payload, err := json.Marshal(Event{
		ID:   "evt-1",
		Type: CONTRACT_STATUS_CHANGED,
		Data: map[string]any{"status": "approved"},
	}.Normalize(LIFECYCLE_CHANNEL))
	require.NoError(t, err)

	bus.handleMessage(LIFECYCLE_CHANNEL, string(payload))
	wg.Wait()

	event := <-received
	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, CONTRACT_STATUS_CHANGED, event.Type)
	assert.Equal(t, "approved", event.Data["status"])
}

func TestEventBus_HandleMessageIgnoresGarbage(t *testing.T) {
	bus := New(nil)
	defer bus.Close()

	called := false
	bus.handlers[LIFECYCLE_CHANNEL] = []EventHandler{func(Event) error {
		called = true
		return nil
	}}

	bus.handleMessage(LIFECYCLE_CHANNEL, "{not json")
	time.Sleep(10 * time.Millisecond)
	assert.False(t, called)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(channel Channel, event Event) error {
	args := m.Called(channel, event)
	return args.Error(0)
}

func TestNotify(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", LIFECYCLE_CHANNEL, mock.MatchedBy(func(event Event) bool {
		return event.Type == REQUEST_CREATED && event.Data["id"] == "r1"
	})).Return(nil).Once()
	publisher.On("Publish", LIFECYCLE_CHANNEL, mock.MatchedBy(func(event Event) bool {
		return event.Type == REQUEST_UPDATED
	})).Return(errors.New("valkey down")).Once()

	Notify(publisher, New(nil).logger, REQUEST_CREATED, map[string]any{"id": "r1"})
	assert.NotPanics(t, func() {
		Notify(publisher, New(nil).logger, REQUEST_UPDATED, nil)
	})
	assert.NotPanics(t, func() {
		Notify(nil, New(nil).logger, REQUEST_UPDATED, nil)
	})

	publisher.AssertExpectations(t)
}
