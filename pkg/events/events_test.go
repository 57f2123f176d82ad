package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	collector := NewCollector()
	eventChan := make(chan CalculationEvent, 3)

	go collector.StartListening(eventChan)

	eventChan <- CalculationEvent{Type: EventCalculationStarted, RunID: "r1", Total: 1}
	eventChan <- CalculationEvent{Type: EventFormulaEvaluated, RunID: "r1", FormulaID: "f", Display: "2"}
	eventChan <- CalculationEvent{Type: EventCalculationCompleted, RunID: "r1"}
	close(eventChan)

	collector.StopListening()

	events := collector.Events()
	assert.Len(t, events, 3)
	assert.Equal(t, EventCalculationStarted, events[0].Type)
	assert.Equal(t, "2", events[1].Display)
	assert.Equal(t, EventCalculationCompleted, events[2].Type)
}

func TestNoopListener_Drains(t *testing.T) {
	listener := &NoopListener{}
	eventChan := make(chan CalculationEvent)
	done := make(chan struct{})

	go func() {
		listener.StartListening(eventChan)
		close(done)
	}()

	for i := 0; i < 10; i++ {
		eventChan <- CalculationEvent{Type: EventFormulaEvaluated}
	}
	close(eventChan)
	<-done
	listener.StopListening()
}

func TestMulti(t *testing.T) {
	first, second := NewCollector(), NewCollector()
	listener := Multi(first, second)

	eventChan := make(chan CalculationEvent, 2)
	go listener.StartListening(eventChan)

	eventChan <- CalculationEvent{Type: EventCalculationStarted}
	eventChan <- CalculationEvent{Type: EventCalculationCompleted}
	close(eventChan)
	listener.StopListening()

	assert.Len(t, first.Events(), 2)
	assert.Equal(t, first.Events(), second.Events())
}

func TestCollector_Reuse(t *testing.T) {
	collector := NewCollector()

	for run := 0; run < 2; run++ {
		eventChan := make(chan CalculationEvent, 2)
		go collector.StartListening(eventChan)

		eventChan <- CalculationEvent{Type: EventCalculationStarted}
		eventChan <- CalculationEvent{Type: EventCalculationCompleted}
		close(eventChan)
		collector.StopListening()

		assert.Len(t, collector.Events(), 2*(run+1))
	}
}

func TestCollector_StopBeforeStart(t *testing.T) {
	collector := NewCollector()
	eventChan := make(chan CalculationEvent, 1)
	eventChan <- CalculationEvent{Type: EventCalculationStarted}
	close(eventChan)

	stopped := make(chan struct{})
	go func() {
		collector.StopListening()
		close(stopped)
	}()
	collector.StartListening(eventChan)
	<-stopped

	assert.Len(t, collector.Events(), 1)
}
