package engine

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Sink receives executed commands in the order they finished.
type Sink interface {
	WriteOutcomes(ctx context.Context, outcomes ...Outcome) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, outcomes ...Outcome) error

func (f SinkFunc) WriteOutcomes(ctx context.Context, outcomes ...Outcome) error {
	return f(ctx, outcomes...)
}

// JSONLinesSink writes one JSON document per outcome.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

func (s *JSONLinesSink) WriteOutcomes(_ context.Context, outcomes ...Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range outcomes {
		if err := s.enc.Encode(o); err != nil {
			return err
		}
	}
	return nil
}

// sinkManager buffers outcomes and flushes them once flushSize is reached or
// on every flushInterval tick. Only the Run loop calls it.
type sinkManager struct {
	sink   Sink
	logger *slog.Logger
	buffer []Outcome

	// Zero disables flushing on size.
	flushSize uint

	// Zero disables scheduled flushing.
	flushInterval time.Duration
}

func newSinkManager(logger *slog.Logger, sink Sink, flushSize uint, flushInterval time.Duration) *sinkManager {
	return &sinkManager{
		logger:        logger,
		sink:          sink,
		flushSize:     flushSize,
		buffer:        make([]Outcome, 0, flushSize),
		flushInterval: flushInterval,
	}
}

// ticker returns a channel that never fires when scheduled flushing is off.
func (sm *sinkManager) ticker() (<-chan time.Time, func()) {
	if sm.flushInterval <= 0 {
		return make(chan time.Time), func() {}
	}

	t := time.NewTicker(sm.flushInterval)
	return t.C, t.Stop
}

func (sm *sinkManager) add(ctx context.Context, outcomes ...Outcome) {
	sm.buffer = append(sm.buffer, outcomes...)

	if sm.flushSize > 0 && uint(len(sm.buffer)) >= sm.flushSize {
		sm.flush(ctx)
	}
}

func (sm *sinkManager) flush(ctx context.Context) {
	if len(sm.buffer) == 0 {
		return
	}

	toFlush := sm.buffer
	sm.buffer = make([]Outcome, 0, sm.flushSize)

	if err := sm.sink.WriteOutcomes(ctx, toFlush...); err != nil {
		sm.logger.Error("failed to flush command outcomes", "count", len(toFlush), "error", err)
		return
	}

	sm.logger.Debug("flushed command outcomes", "count", len(toFlush))
}
