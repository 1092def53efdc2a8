package rlm

import (
	"sync"
	"time"
)

// EventKind identifies the type of agent event.
type EventKind string

const (
	EventTaskStart         EventKind = "task_start"
	EventIterationStart    EventKind = "iteration_start"
	EventAssistantResponse EventKind = "assistant_response"
	EventCodeExecution     EventKind = "code_execution"
	EventObservation       EventKind = "observation"
	EventReprompt          EventKind = "reprompt"
	EventFinalAnswer       EventKind = "final_answer"
	EventBudgetExhausted   EventKind = "budget_exhausted"
	EventDelegation        EventKind = "delegation"
	EventError             EventKind = "error"
)

// Event is a typed event emitted by an agent. Children report through their
// root's emitter, so AgentID and Depth tell runs apart.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	AgentID   string                 `json:"agent_id"`
	Depth     int                    `json:"depth"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventEmitter delivers events to the host application via a channel.
type EventEmitter struct {
	ch     chan Event
	closed bool
	mu     sync.Mutex
}

// NewEventEmitter creates a new EventEmitter with a buffered channel.
func NewEventEmitter(bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &EventEmitter{ch: make(chan Event, bufferSize)}
}

// Emit sends an event to the channel. Events are dropped when the emitter is
// closed or the buffer is full; the agent loop never blocks on a reader.
func (e *EventEmitter) Emit(agentID string, depth int, kind EventKind, data map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	event := Event{
		Kind:      kind,
		Timestamp: time.Now(),
		AgentID:   agentID,
		Depth:     depth,
		Data:      data,
	}
	select {
	case e.ch <- event:
	default:
	}
}

// Events returns the read-only event channel.
func (e *EventEmitter) Events() <-chan Event {
	return e.ch
}

// Close closes the event channel. Safe to call multiple times.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
