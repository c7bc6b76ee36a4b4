package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Submitter implements ports.Submitter by persisting submissions to Redis.
// Each submission is stored as JSON under its ID and indexed by submission time.
type Submitter struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.Submitter = (*Submitter)(nil)

// Option configures a Submitter.
type Option func(*Submitter)

// WithTTL sets the expiration for stored submissions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Submitter) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Submitter) {
		s.prefix = prefix
	}
}

// New creates a submitter connected to address.
func New(address, password string, db int, opts ...Option) *Submitter {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromURL creates a submitter from a redis:// URL.
func NewFromURL(url string, opts ...Option) (*Submitter, error) {
	options, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(options), opts...), nil
}

// NewFromClient creates a submitter from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Submitter {
	s := &Submitter{
		client: client,
		prefix: "fabstate:submission:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Submitter) key(id string) string {
	return s.prefix + id
}

func (s *Submitter) indexKey() string {
	return s.prefix + "index"
}

// Submit stores sub and adds it to the index.
func (s *Submitter) Submit(ctx context.Context, sub ports.Submission) error {
	if sub.ID == "" {
		return fmt.Errorf("submission has no id")
	}
	if sub.At.IsZero() {
		sub.At = time.Now()
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(sub.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(sub.At.UnixNano()),
		Member: sub.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save submission to redis: %w", err)
	}
	return nil
}

// Load retrieves a submission by ID.
func (s *Submitter) Load(ctx context.Context, id string) (ports.Submission, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return ports.Submission{}, domain.ErrSubmissionNotFound
		}
		return ports.Submission{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var sub ports.Submission
	if err := json.Unmarshal([]byte(val), &sub); err != nil {
		return ports.Submission{}, fmt.Errorf("failed to unmarshal submission: %w", err)
	}
	return sub, nil
}

// List returns the IDs of stored submissions, oldest first.
// IDs whose payload has expired are pruned from the index.
func (s *Submitter) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	live := ids[:0]
	for _, id := range ids {
		n, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check submission %s: %w", id, err)
		}
		if n == 0 {
			if err := s.client.ZRem(ctx, s.indexKey(), id).Err(); err != nil {
				return nil, fmt.Errorf("failed to prune submission %s: %w", id, err)
			}
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

// Delete removes a submission.
func (s *Submitter) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	_, err := pipe.Exec(ctx)
	return err
}

// Close closes the redis client.
func (s *Submitter) Close() error {
	return s.client.Close()
}
