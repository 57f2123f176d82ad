// Package events provides types and interfaces for following a calculation
// as it runs. A calculation emits one start event, one event per evaluated
// formula and one completion event.
//
// Formula events arrive in completion order, not catalog order, since
// formulas are evaluated in parallel.
package events

import (
	"sync"
	"time"
)

// CalculationEventType represents the type of event emitted during a calculation.
type CalculationEventType string

const (
	// EventCalculationStarted is emitted before any formula is evaluated.
	EventCalculationStarted CalculationEventType = "calculation_started"

	// EventFormulaEvaluated is emitted once per formula with its display value.
	EventFormulaEvaluated CalculationEventType = "formula_evaluated"

	// EventCalculationCompleted is emitted after every formula has been evaluated.
	EventCalculationCompleted CalculationEventType = "calculation_completed"

	// EventCalculationFailed is emitted when a calculation is cancelled before
	// all formulas were evaluated.
	EventCalculationFailed CalculationEventType = "calculation_failed"
)

// CalculationEvent is a single event of a calculation run.
type CalculationEvent struct {
	// Type specifies the kind of event.
	Type CalculationEventType `json:"type"`
	// Timestamp indicates when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// RunID identifies the calculation the event belongs to.
	RunID string `json:"run_id"`
	// FormulaID is set on formula events.
	FormulaID string `json:"formula_id,omitempty"`
	// FormulaIndex is the position of the formula in the catalog.
	FormulaIndex int `json:"formula_index,omitempty"`
	// Display is the text shown for the formula.
	Display string `json:"display,omitempty"`
	// Outcome is ok, error or no_match.
	Outcome string `json:"outcome,omitempty"`
	// Total is the number of formulas in the calculation.
	Total int `json:"total,omitempty"`
	// Duration is how long the calculation took (completion events only).
	Duration time.Duration `json:"duration,omitempty"`
	// Error contains the failure reason of a calculation_failed event.
	Error string `json:"error,omitempty"`
}

// Listener receives the events of a calculation.
type Listener interface {
	// StartListening consumes events until the channel is closed. It is run
	// on its own goroutine.
	StartListening(eventChan <-chan CalculationEvent)

	// StopListening is called once the calculation has finished and the
	// channel is closed.
	StopListening()
}

// NoopListener discards every event.
type NoopListener struct{}

// StartListening drains the channel.
func (n *NoopListener) StartListening(eventChan <-chan CalculationEvent) {
	for range eventChan {
	}
}

// StopListening does nothing.
func (n *NoopListener) StopListening() {}

// Collector is a Listener that keeps every event it receives. A Collector
// can be reused across calculations run one after another; events accumulate.
type Collector struct {
	mu     sync.Mutex
	events []CalculationEvent
	done   chan struct{}
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// run returns the done channel of the current calculation, creating it if
// neither StartListening nor StopListening has been called for it yet.
func (c *Collector) run() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		c.done = make(chan struct{})
	}
	return c.done
}

// StartListening records events until the channel is closed.
func (c *Collector) StartListening(eventChan <-chan CalculationEvent) {
	done := c.run()
	defer close(done)
	for event := range eventChan {
		c.mu.Lock()
		c.events = append(c.events, event)
		c.mu.Unlock()
	}
}

// StopListening waits for StartListening to drain the channel.
func (c *Collector) StopListening() {
	done := c.run()
	<-done

	c.mu.Lock()
	if c.done == done {
		c.done = nil
	}
	c.mu.Unlock()
}

// Events returns a copy of the recorded events. Call it after StopListening.
func (c *Collector) Events() []CalculationEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CalculationEvent, len(c.events))
	copy(out, c.events)
	return out
}

// multiListener forwards every event to several listeners
type multiListener struct {
	listeners []Listener
	chans     []chan CalculationEvent
	done      chan struct{}
}

// Multi combines listeners into one. Each listener gets its own channel.
// The returned Listener serves a single calculation.
func Multi(listeners ...Listener) Listener {
	m := &multiListener{
		listeners: listeners,
		chans:     make([]chan CalculationEvent, len(listeners)),
		done:      make(chan struct{}),
	}
	for i := range listeners {
		m.chans[i] = make(chan CalculationEvent, 16)
	}
	return m
}

// StartListening fans events out until eventChan is closed
func (m *multiListener) StartListening(eventChan <-chan CalculationEvent) {
	defer close(m.done)

	for i, listener := range m.listeners {
		go listener.StartListening(m.chans[i])
	}

	for event := range eventChan {
		for _, ch := range m.chans {
			ch <- event
		}
	}

	for _, ch := range m.chans {
		close(ch)
	}
}

// StopListening waits for the fan-out to finish, then stops every listener
func (m *multiListener) StopListening() {
	<-m.done
	for _, listener := range m.listeners {
		listener.StopListening()
	}
}
