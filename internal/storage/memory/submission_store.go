package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
)

// ErrSubmissionNotFound is returned when a status update names an unknown
// submission ID.
var ErrSubmissionNotFound = errors.New("submission not found")

// SubmissionStore keeps community dupe submissions in memory.
type SubmissionStore struct {
	mu          sync.RWMutex
	submissions map[string]dupe.Submission
}

// NewSubmissionStore constructs an empty SubmissionStore.
func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{submissions: make(map[string]dupe.Submission)}
}

// CreateSubmission stores a new submission. The caller assigns the ID.
func (s *SubmissionStore) CreateSubmission(_ context.Context, sub dupe.Submission) error {
	if sub.ID == "" {
		return errors.New("submission has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.submissions[sub.ID]; exists {
		return errors.New("submission already exists")
	}
	s.submissions[sub.ID] = sub
	return nil
}

// ListSubmissions returns submissions in the given status, newest first.
// An empty status returns everything.
func (s *SubmissionStore) ListSubmissions(_ context.Context, status dupe.SubmissionStatus) ([]dupe.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []dupe.Submission
	for _, sub := range s.submissions {
		if status != "" && sub.Status != status {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateSubmissionStatus moves a submission to a new review state.
func (s *SubmissionStore) UpdateSubmissionStatus(_ context.Context, id string, status dupe.SubmissionStatus) error {
	if !dupe.ValidSubmissionStatus(status) {
		return errors.New("invalid submission status")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return ErrSubmissionNotFound
	}
	sub.Status = status
	s.submissions[id] = sub
	return nil
}
