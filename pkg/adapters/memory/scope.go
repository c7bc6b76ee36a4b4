package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/fabstate/internal/logging"
	"github.com/aretw0/fabstate/internal/resolver"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/ports"
	"github.com/google/uuid"
)

// DefaultOutputKey is the property submitted by SendForm unless WithOutputKey is used.
const DefaultOutputKey = "outputParams"

type property struct {
	value    any
	readOnly bool
}

type subscription struct {
	handler func(any)
	active  bool
}

// Scope implements ports.Scope in memory.
// Like the view scopes it stands in for, it is not safe for concurrent use.
type Scope struct {
	props     map[string]property
	handlers  map[string][]*subscription
	submitter ports.Submitter
	outputKey string
	ctx       context.Context
	logger    *slog.Logger
}

var _ ports.Scope = (*Scope)(nil)

// Option configures a Scope.
type Option func(*Scope)

// WithSubmitter sets the destination of SendForm.
func WithSubmitter(s ports.Submitter) Option {
	return func(sc *Scope) {
		sc.submitter = s
	}
}

// WithOutputKey sets the property whose content is submitted by SendForm.
func WithOutputKey(key string) Option {
	return func(sc *Scope) {
		if key != "" {
			sc.outputKey = key
		}
	}
}

// WithContext sets the context handed to the submitter.
func WithContext(ctx context.Context) Option {
	return func(sc *Scope) {
		sc.ctx = ctx
	}
}

// WithProperties seeds writable properties.
func WithProperties(props map[string]any) Option {
	return func(sc *Scope) {
		for k, v := range props {
			sc.props[k] = property{value: v}
		}
	}
}

// WithLogger configures a logger for submissions.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *Scope) {
		sc.logger = logger
	}
}

// NewScope creates an empty scope.
func NewScope(opts ...Option) *Scope {
	sc := &Scope{
		props:     make(map[string]property),
		handlers:  make(map[string][]*subscription),
		outputKey: DefaultOutputKey,
		ctx:       context.Background(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Get returns the property stored under key.
func (sc *Scope) Get(key string) (any, bool) {
	p, ok := sc.props[key]
	return p.value, ok
}

// Set stores a writable property.
func (sc *Scope) Set(key string, value any) error {
	if p, ok := sc.props[key]; ok && p.readOnly {
		return fmt.Errorf("set %q: %w", key, domain.ErrReadOnly)
	}
	sc.props[key] = property{value: value}
	return nil
}

// Define stores a read-only property. A writable property of the same name is replaced.
func (sc *Scope) Define(key string, value any) error {
	if p, ok := sc.props[key]; ok && p.readOnly {
		return fmt.Errorf("define %q: %w", key, domain.ErrReadOnly)
	}
	sc.props[key] = property{value: value, readOnly: true}
	return nil
}

// Delete removes a property.
func (sc *Scope) Delete(key string) {
	delete(sc.props, key)
}

// Keys returns the property names in lexical order.
func (sc *Scope) Keys() []string {
	keys := make([]string, 0, len(sc.props))
	for k := range sc.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Properties returns a copy of the raw property values.
func (sc *Scope) Properties() map[string]any {
	out := make(map[string]any, len(sc.props))
	for k, p := range sc.props {
		out[k] = p.value
	}
	return out
}

// ReadOnly reports whether key holds a read-only property.
func (sc *Scope) ReadOnly(key string) bool {
	return sc.props[key].readOnly
}

// Emit calls the handlers subscribed to event in subscription order.
// Handlers added during delivery are first called by the next Emit; cancelled ones are skipped at once.
func (sc *Scope) Emit(event string, value any) {
	subs := append([]*subscription(nil), sc.handlers[event]...)
	for _, sub := range subs {
		if sub.active {
			sub.handler(value)
		}
	}
}

// On subscribes handler to event.
func (sc *Scope) On(event string, handler func(any)) func() {
	sub := &subscription{handler: handler, active: handler != nil}
	sc.handlers[event] = append(sc.handlers[event], sub)
	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		list := sc.handlers[event]
		for i, s := range list {
			if s == sub {
				sc.handlers[event] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Subscribers returns the number of live handlers for event.
func (sc *Scope) Subscribers(event string) int {
	return len(sc.handlers[event])
}

// SendForm hands a detached copy of the output property to the submitter.
// Without a submitter the call is a no-op.
func (sc *Scope) SendForm(tag string) error {
	if sc.submitter == nil {
		return nil
	}
	output := map[string]any{}
	if v, ok := sc.Get(sc.outputKey); ok {
		if t, ok := domain.AsTree(domain.Value(v)); ok {
			output = resolver.MaterializeTree(t)
		}
	}
	sub := ports.Submission{
		ID:     uuid.NewString(),
		Tag:    tag,
		Output: output,
		At:     time.Now(),
	}
	if err := sc.submitter.Submit(sc.ctx, sub); err != nil {
		sc.logger.Warn("Form submission failed", "tag", tag, "err", err)
		return err
	}
	sc.logger.Debug("Form submitted", "id", sub.ID, "tag", tag)
	return nil
}
