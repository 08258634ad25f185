package event

import (
	"time"

	"github.com/google/uuid"
)

// Topic is a hierarchical event name.
type Topic string

// Event topics published by the runtime.
const (
	// TopicOpenExtension asks the shell to open an extension's landing view.
	TopicOpenExtension Topic = "extension.open"

	// TopicOpenExtensionID asks the shell to open a view id owned by an extension.
	TopicOpenExtensionID Topic = "extension.open.id"
)

// Matches reports whether t is selected by pattern.
func (t Topic) Matches(pattern Topic) bool {
	if pattern == t || pattern == "*" {
		return true
	}
	p := string(pattern)
	if len(p) > 2 && p[len(p)-2:] == ".*" {
		prefix := p[:len(p)-1]
		return len(t) > len(prefix) && string(t[:len(prefix)]) == prefix
	}
	return false
}

// Event is a published message.
type Event[T any] struct {
	Type     Topic
	Payload  T
	Metadata Metadata
}

// Metadata is attached to every event.
type Metadata struct {
	// ID uniquely identifies this event instance.
	ID        string
	Timestamp time.Time
	// Source is the extension or component that published the event.
	Source string
}

// NewEvent creates an event with fresh metadata.
func NewEvent[T any](t Topic, payload T, source string) Event[T] {
	return Event[T]{
		Type:    t,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// OpenExtension is the payload of TopicOpenExtension.
type OpenExtension struct {
	Name string
}

// OpenExtensionID is the payload of TopicOpenExtensionID.
type OpenExtensionID struct {
	// Name is the owning extension.
	Name string
	// ID is the view to open; equal to Name for the extension's own view.
	ID string
}

// Envelope is the type-erased view of an Event handed to handlers.
type Envelope interface {
	EventTopic() Topic
	EventMetadata() Metadata
	EventPayload() any
}

// EventTopic returns the event's topic.
func (e Event[T]) EventTopic() Topic { return e.Type }

// EventMetadata returns the event's metadata.
func (e Event[T]) EventMetadata() Metadata { return e.Metadata }

// EventPayload returns the payload as any.
func (e Event[T]) EventPayload() any { return e.Payload }
