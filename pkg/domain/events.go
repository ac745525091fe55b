package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventMessage           EventType = "message"
	EventCommand           EventType = "command"
	EventTransition        EventType = "transition"
	EventDonation          EventType = "donation"
	EventCollaboratorError EventType = "collaborator_error"
	EventNudge             EventType = "nudge"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Identity  string    `json:"identity"`
}

// MessageEvent is emitted once per inbound message processed, and once per reply sent.
type MessageEvent struct {
	EventBase
	Direction Direction     `json:"direction"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// CommandEvent is emitted when input is classified as a command.
type CommandEvent struct {
	EventBase
	Command string `json:"command"`
}

// TransitionEvent is emitted when a session changes step.
type TransitionEvent struct {
	EventBase
	From Step `json:"from"`
	To   Step `json:"to"`
}

// DonationEvent is emitted after a record is written.
type DonationEvent struct {
	EventBase
	RecordID string `json:"record_id"`
}

// CollaboratorEvent is emitted when a non-critical collaborator call fails.
type CollaboratorEvent struct {
	EventBase
	Collaborator string `json:"collaborator"`
	Err          error  `json:"-"`
}

// Hooks defines callbacks for engine observability.
type Hooks struct {
	OnMessage           func(context.Context, *MessageEvent)
	OnCommand           func(context.Context, *CommandEvent)
	OnTransition        func(context.Context, *TransitionEvent)
	OnDonation          func(context.Context, *DonationEvent)
	OnCollaboratorError func(context.Context, *CollaboratorEvent)
	OnNudge             func(context.Context, *EventBase)
}
