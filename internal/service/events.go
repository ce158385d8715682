package service

import (
	"time"

	"github.com/dafibh/casa/casa-backend/internal/websocket"
	"github.com/google/uuid"
)

// eventEmitter is embedded by services that publish change events
type eventEmitter struct {
	eventPublisher websocket.EventPublisher
}

// SetEventPublisher sets the event publisher for real-time updates
func (e *eventEmitter) SetEventPublisher(publisher websocket.EventPublisher) {
	e.eventPublisher = publisher
}

// publishEvent publishes an event if a publisher is configured
func (e *eventEmitter) publishEvent(ownerID uuid.UUID, event websocket.Event) {
	if e.eventPublisher != nil {
		e.eventPublisher.Publish(ownerID, event)
	}
}

// utcNow is the default service clock
func utcNow() time.Time {
	return time.Now().UTC()
}
