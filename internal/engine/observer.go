package engine

import "time"

// EventType represents a phase in command execution
type EventType string

const (
	EventParseStart EventType = "parse_start"
	EventParseEnd   EventType = "parse_end"
	EventExecStart  EventType = "exec_start"
	EventExecEnd    EventType = "exec_end"
	EventExecFailed EventType = "exec_failed"
)

// Event represents a lifecycle event in command execution
type Event struct {
	Type      EventType // Type of event
	CommandID string    // shared by every event of one Execute call
	Timestamp time.Time // When the event occurred
	Data      any       // Phase-specific data (input line, command name, result size, error)
}

// Observer receives command lifecycle events
type Observer interface {
	OnEvent(event Event)
}
