// RecordingSink captures telemetry records for assertions.
package mocks

import (
	"context"
	"sync"

	"github.com/noahdevelopsio/lifeos/tracking"
)

// RecordingSink implements tracking.Sink and stores every record it
// receives. Optionally it can fail or panic to exercise the dispatcher's
// isolation guarantees.
type RecordingSink struct {
	mu sync.Mutex

	traces []tracking.Trace
	spans  []tracking.Span
	scores []tracking.Score
	events []tracking.Event

	err      error
	panicMsg string
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// WithError makes every emission return err.
func (s *RecordingSink) WithError(err error) *RecordingSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	return s
}

// WithPanic makes every emission panic with msg.
func (s *RecordingSink) WithPanic(msg string) *RecordingSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panicMsg = msg
	return s
}

func (s *RecordingSink) Trace(_ context.Context, t tracking.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return s.err
	}
	s.traces = append(s.traces, t)
	return nil
}

func (s *RecordingSink) Span(_ context.Context, sp tracking.Span) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return s.err
	}
	s.spans = append(s.spans, sp)
	return nil
}

func (s *RecordingSink) Score(_ context.Context, sc tracking.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return s.err
	}
	s.scores = append(s.scores, sc)
	return nil
}

func (s *RecordingSink) Log(_ context.Context, e tracking.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

// Traces returns a copy of the captured traces.
func (s *RecordingSink) Traces() []tracking.Trace {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tracking.Trace, len(s.traces))
	copy(out, s.traces)
	return out
}

// Spans returns a copy of the captured spans.
func (s *RecordingSink) Spans() []tracking.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tracking.Span, len(s.spans))
	copy(out, s.spans)
	return out
}

// Scores returns a copy of the captured scores.
func (s *RecordingSink) Scores() []tracking.Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tracking.Score, len(s.scores))
	copy(out, s.scores)
	return out
}

// Events returns a copy of the captured events.
func (s *RecordingSink) Events() []tracking.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tracking.Event, len(s.events))
	copy(out, s.events)
	return out
}

// ScoreByName returns the first captured score with the given name.
func (s *RecordingSink) ScoreByName(name string) (tracking.Score, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.scores {
		if sc.Name == name {
			return sc, true
		}
	}
	return tracking.Score{}, false
}

// EventByName returns the first captured event with the given name.
func (s *RecordingSink) EventByName(name string) (tracking.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Name == name {
			return e, true
		}
	}
	return tracking.Event{}, false
}
