package server

import (
	"context"
	"net/http"

	"github.com/Ergy12/caldeco/internal/engine"
	"github.com/Ergy12/caldeco/pkg/events"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// streamListener writes calculation events to a websocket connection.
// It serves a single calculation.
type streamListener struct {
	conn *websocket.Conn
	done chan struct{}
	err  error
}

func newStreamListener(conn *websocket.Conn) *streamListener {
	return &streamListener{conn: conn, done: make(chan struct{})}
}

// StartListening forwards events until the channel is closed. After the
// first write error the remaining events are drained and dropped.
func (l *streamListener) StartListening(eventChan <-chan events.CalculationEvent) {
	defer close(l.done)
	for event := range eventChan {
		if l.err != nil {
			continue
		}
		l.err = l.conn.WriteJSON(event)
	}
}

// StopListening waits until every event has been written
func (l *streamListener) StopListening() {
	<-l.done
}

// stream recalculates every formula for each inputs message a client sends
// and streams the events of the calculation back
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s.metrics.streamClients.Inc()
	defer s.metrics.streamClients.Dec()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("Stream client disconnected")
			}
			return
		}

		if err := s.streamCalculation(r.Context(), conn, message); err != nil {
			log.Debug().Err(err).Msg("Stream write failed")
			return
		}
	}
}

// streamCalculation runs one calculation for a client message. It returns
// an error only when the connection can no longer be written to.
func (s *Server) streamCalculation(ctx context.Context, conn *websocket.Conn, message []byte) error {
	catalog := s.store.Get()

	inputs, err := decodeInputs(message)
	if err != nil {
		return conn.WriteJSON(map[string]any{"error": err.Error()})
	}

	validation := engine.ValidateInputs(catalog, inputs)
	if !validation.Valid {
		return conn.WriteJSON(formatValidationErrors(validation))
	}

	if s.config.CalculationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.CalculationTimeout)
		defer cancel()
	}

	listener := newStreamListener(conn)
	calculator := engine.NewCalculator(
		engine.WithConcurrency(s.config.Concurrency),
		engine.WithListener(listener),
	)

	result, err := calculator.Calculate(ctx, catalog, validation.ProcessedInputs)
	if listener.err != nil {
		return listener.err
	}
	if err != nil {
		log.Debug().Err(err).Msg("Stream calculation cancelled")
		return nil
	}

	s.metrics.ObserveCalculation(result)
	return nil
}
