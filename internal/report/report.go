// Package report collects per-item outcomes during clearing and restore so
// partial failures are counted and logged instead of silently discarded.
package report

import (
	"log/slog"
	"sync"
)

// Outcome records one item-level operation. Err is nil on success.
type Outcome struct {
	Stage string
	Item  string
	Err   error
}

// Summary accumulates outcomes. Safe for concurrent use by the restore
// stages.
type Summary struct {
	mu       sync.Mutex
	outcomes []Outcome
}

// Add records an outcome.
func (s *Summary) Add(stage, item string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, Outcome{Stage: stage, Item: item, Err: err})
}

// Total returns the number of recorded outcomes.
func (s *Summary) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}

// Failed returns the number of failed outcomes.
func (s *Summary) Failed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes in recording order.
func (s *Summary) Failures() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Outcome
	for _, o := range s.outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Log writes each failure and a closing count line to l.
func (s *Summary) Log(l *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	failed := 0
	for _, o := range s.outcomes {
		if o.Err == nil {
			continue
		}
		failed++
		l.Warn("item failed", "stage", o.Stage, "item", o.Item, "error", o.Err)
	}
	l.Info("item outcomes", "total", len(s.outcomes), "failed", failed)
}
