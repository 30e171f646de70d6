// Package event defines all events that can be published by the application.
// Events record session lifecycle changes and are consumed by audit subscribers.
package event

import "grocer-go/core/state"

// Event is the base interface for all events.
// Events are published by the application layer and consumed by subscribers.
type Event interface {
	// EventName returns the name of the event for logging/debugging
	EventName() string
}

// SessionEvent is an event that originates from a specific session.
type SessionEvent interface {
	Event
	// SessionID returns the source session ID
	SessionID() string
}

// baseSessionEvent provides common implementation for session events.
type baseSessionEvent struct {
	sessionID string
}

func (e *baseSessionEvent) SessionID() string {
	return e.sessionID
}

// PhaseChanged is published when a session record moves to another phase.
type PhaseChanged struct {
	baseSessionEvent
	OldPhase state.Phase
	NewPhase state.Phase
}

func NewPhaseChanged(sessionID string, oldPhase, newPhase state.Phase) *PhaseChanged {
	return &PhaseChanged{
		baseSessionEvent: baseSessionEvent{sessionID: sessionID},
		OldPhase:         oldPhase,
		NewPhase:         newPhase,
	}
}

func (e *PhaseChanged) EventName() string {
	return "PhaseChanged"
}
