package ports

import (
	"context"
	"time"
)

// Submission is the payload handed to a Submitter when a form is sent.
type Submission struct {
	ID     string         `json:"id"`
	Tag    string         `json:"tag,omitempty"`
	Output map[string]any `json:"output"`
	At     time.Time      `json:"at"`
}

// Submitter receives form submissions.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) error
}

// SubmitterFunc adapts a function into a Submitter.
type SubmitterFunc func(ctx context.Context, sub Submission) error

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, sub Submission) error {
	return f(ctx, sub)
}
