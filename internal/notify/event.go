// Package notify is the in-process notification bus: a hub of connected
// observers, an optional Redis relay that fans events out across replicas,
// and the websocket transport observers connect through.
//
// Delivery is best-effort and at-most-once. Events are never stored, so an
// observer only receives what is published while it is connected.
package notify

import (
	"context"
	"encoding/json"
)

// EventNotification is the only event name emitted to observers.
const EventNotification = "notification"

// Event is the frame pushed to observers.
type Event struct {
	Name string  `json:"event"`
	Data Payload `json:"data"`
}

// Payload carries the human-readable message.
type Payload struct {
	Message string `json:"message"`
}

// Notification builds a notification event.
func Notification(message string) Event {
	return Event{Name: EventNotification, Data: Payload{Message: message}}
}

func (e Event) encode() ([]byte, error) { return json.Marshal(e) }

// Publisher pushes an event to every currently connected observer.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Messenger publishes plain text as notification events. It satisfies the
// visitor service's post-commit Notifier.
type Messenger struct {
	Publisher Publisher
}

// Notify publishes message as a notification event.
func (m Messenger) Notify(ctx context.Context, message string) error {
	return m.Publisher.Publish(ctx, Notification(message))
}
