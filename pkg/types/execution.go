package types

import (
	"errors"
	"fmt"
	"time"
)

// EventTimeLayout is the exact timestamp format carried by execution events.
const EventTimeLayout = "2006-01-02T15:04:05Z"

// ErrUnknownStatus is returned when a status or state string is outside the
// known vocabulary.
var ErrUnknownStatus = errors.New("unknown execution status")

// EventState is the raw state carried by a pipeline execution event.
type EventState string

const (
	EventStarted    EventState = "STARTED"
	EventSucceeded  EventState = "SUCCEEDED"
	EventResumed    EventState = "RESUMED"
	EventFailed     EventState = "FAILED"
	EventCanceled   EventState = "CANCELED"
	EventSuperseded EventState = "SUPERSEDED"
	EventStopping   EventState = "STOPPING"
	EventStopped    EventState = "STOPPED"
)

// ParseEventState validates s against the event vocabulary.
func ParseEventState(s string) (EventState, error) {
	switch st := EventState(s); st {
	case EventStarted, EventSucceeded, EventResumed, EventFailed,
		EventCanceled, EventSuperseded, EventStopping, EventStopped:
		return st, nil
	}
	return "", fmt.Errorf("event state %q: %w", s, ErrUnknownStatus)
}

// Terminal reports whether the state ends an execution with an outcome that
// produces metrics.
func (s EventState) Terminal() bool {
	return s == EventSucceeded || s == EventFailed
}

// Outcome maps a terminal event state onto the history vocabulary.
// Non-terminal states return the empty Status.
func (s EventState) Outcome() Status {
	switch s {
	case EventSucceeded:
		return StatusSucceeded
	case EventFailed:
		return StatusFailed
	}
	return ""
}

// Status is the execution status reported by the execution history.
type Status string

const (
	StatusSucceeded  Status = "Succeeded"
	StatusFailed     Status = "Failed"
	StatusInProgress Status = "InProgress"
	StatusStopped    Status = "Stopped"
	StatusStopping   Status = "Stopping"
	StatusSuperseded Status = "Superseded"
	StatusCancelled  Status = "Cancelled"
)

// ParseStatus validates s against the history vocabulary.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusSucceeded, StatusFailed, StatusInProgress, StatusStopped,
		StatusStopping, StatusSuperseded, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("history status %q: %w", s, ErrUnknownStatus)
}

// Terminal reports whether the status is one of the two metric-producing
// outcomes.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// ExecutionEvent is one inbound pipeline execution state change.
type ExecutionEvent struct {
	// ID is the envelope identifier assigned by the event bus.
	ID           string
	PipelineName string
	ExecutionID  string
	State        EventState
	// Time is the event timestamp; every metric derived from this event is
	// written with exactly this timestamp.
	Time    time.Time
	Region  string
	Account string
}

// ExecutionSummary is one entry of a pipeline's execution history.
type ExecutionSummary struct {
	ID             string
	Status         Status
	StartTime      time.Time
	LastUpdateTime time.Time
}
