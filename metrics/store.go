package metrics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists evaluation and feedback rows. Save methods report success
// as a bool instead of an error: metric persistence is best-effort, and
// callers only ever branch on whether the row landed.
type Store interface {
	SaveEvaluation(ctx context.Context, row *EvaluationRow) bool
	SaveFeedback(ctx context.Context, row *FeedbackRow) bool
	RecentEvaluations(ctx context.Context, since time.Time) ([]EvaluationRow, error)
	RecentFeedback(ctx context.Context, since time.Time) ([]FeedbackRow, error)
}

// MemoryStore is an in-process Store for tests and single-node demo runs.
type MemoryStore struct {
	mu          sync.RWMutex
	nextID      uint
	evaluations []EvaluationRow
	feedback    []FeedbackRow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) SaveEvaluation(_ context.Context, row *EvaluationRow) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.nextID
	s.nextID++
	s.evaluations = append(s.evaluations, *row)
	return true
}

func (s *MemoryStore) SaveFeedback(_ context.Context, row *FeedbackRow) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.nextID
	s.nextID++
	s.feedback = append(s.feedback, *row)
	return true
}

// RecentEvaluations returns rows at or after since, newest first.
func (s *MemoryStore) RecentEvaluations(_ context.Context, since time.Time) ([]EvaluationRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []EvaluationRow
	for _, row := range s.evaluations {
		if !row.CreatedAt.Before(since) {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) RecentFeedback(_ context.Context, since time.Time) ([]FeedbackRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FeedbackRow
	for _, row := range s.feedback {
		if !row.CreatedAt.Before(since) {
			out = append(out, row)
		}
	}
	return out, nil
}
