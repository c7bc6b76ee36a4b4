package memory

import (
	"context"
	"sync"

	"github.com/aretw0/fabstate/pkg/ports"
)

// Recorder implements ports.Submitter by keeping submissions in memory.
// Safe for concurrent use.
type Recorder struct {
	mu          sync.RWMutex
	submissions []ports.Submission
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Submit records sub.
func (r *Recorder) Submit(ctx context.Context, sub ports.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions = append(r.submissions, sub)
	return nil
}

// Submissions returns a copy of the recorded submissions, oldest first.
func (r *Recorder) Submissions() []ports.Submission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.Submission, len(r.submissions))
	copy(out, r.submissions)
	return out
}

// Last returns the most recent submission.
func (r *Recorder) Last() (ports.Submission, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.submissions) == 0 {
		return ports.Submission{}, false
	}
	return r.submissions[len(r.submissions)-1], true
}
