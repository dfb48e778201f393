// Package events publishes entry lifecycle events for downstream consumers
// such as reminders and analytics.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
)

type Type string

const (
	EntryLogged  Type = "entry.logged"
	EntryUpdated Type = "entry.updated"
	EntryDeleted Type = "entry.deleted"
)

type Event struct {
	ID        string        `json:"eventId"`
	Type      Type          `json:"eventType"`
	EntryID   string        `json:"entryId"`
	UserID    string        `json:"userId"`
	Kind      internal.Kind `json:"kind"`
	Day       string        `json:"day"`
	Created   bool          `json:"created,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewEntryEvent builds an event describing e.
func NewEntryEvent(t Type, e *internal.Entry, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		EntryID:   e.ID,
		UserID:    e.UserID,
		Kind:      e.Kind,
		Day:       e.Day,
		Timestamp: at,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
