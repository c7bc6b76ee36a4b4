package state

import (
	"github.com/aretw0/fabstate/internal/logging"
	"github.com/aretw0/fabstate/internal/resolver"
	"github.com/aretw0/fabstate/pkg/domain"
)

// Builder assembles a state descriptor. Setters ignore invalid values and keep the prior one.
type Builder struct {
	name       string
	tree       domain.Tree
	dispatcher domain.Factory
	mixins     []domain.Factory
	connect    domain.Connect
	settings   settings
}

// New creates an empty builder named domain.DefaultStateName.
func New(opts ...Option) *Builder {
	b := &Builder{
		name:     domain.DefaultStateName,
		tree:     domain.Tree{},
		settings: settings{logger: logging.NewNop()},
	}
	for _, opt := range opts {
		opt(&b.settings)
	}
	return b
}

// State sets the initial tree. Values that are not plain objects become an empty tree.
func (b *Builder) State(value any) *Builder {
	b.tree = domain.OnlyTree(value)
	return b
}

// Name sets the registration name. An empty name is ignored.
func (b *Builder) Name(name string) *Builder {
	if name != "" {
		b.name = name
	}
	return b
}

// Dispatcher sets the factory of the primary action table.
func (b *Builder) Dispatcher(fn domain.Factory) *Builder {
	if fn != nil {
		b.dispatcher = fn
	}
	return b
}

// Connect sets the input and output mappings. Nil mappers leave the current one in place.
func (b *Builder) Connect(c domain.Connect) *Builder {
	if c.Input != nil {
		b.connect.Input = c.Input
	}
	if c.Output != nil {
		b.connect.Output = c.Output
	}
	return b
}

// Mixin appends a mixin factory. Each mixin keeps its own action table.
func (b *Builder) Mixin(fn domain.Factory) *Builder {
	if fn != nil {
		b.mixins = append(b.mixins, fn)
	}
	return b
}

// Apply adds runtime options after construction.
func (b *Builder) Apply(opts ...Option) *Builder {
	for _, opt := range opts {
		opt(&b.settings)
	}
	return b
}

// Build creates the descriptor. Each descriptor gets its own copy of the tree, owned by
// the Context created here; the builder can be built again without sharing state.
func (b *Builder) Build() *Descriptor {
	mixins := make([]domain.Factory, len(b.mixins))
	copy(mixins, b.mixins)
	tree := resolver.Clone(b.tree)
	return &Descriptor{
		name:       b.name,
		tree:       tree,
		ctx:        domain.NewContext(tree),
		dispatcher: b.dispatcher,
		mixins:     mixins,
		connect:    b.connect,
		actions:    domain.ActionTable{},
		logger:     b.settings.logger,
		debug:      b.settings.debug,
		hooks:      b.settings.hooks,
	}
}

// Options is the one-shot form of the builder.
type Options struct {
	Name string
	// State is the initial tree, or a func() domain.Tree invoked once at creation.
	State      any
	Dispatcher domain.Factory
	Connect    domain.Connect
	Mixins     []domain.Factory
}

// Create builds a descriptor from opts.
func Create(opts Options, runtime ...Option) *Descriptor {
	initial := opts.State
	switch fn := initial.(type) {
	case func() domain.Tree:
		if fn != nil {
			initial = fn()
		}
	case func() map[string]any:
		if fn != nil {
			initial = fn()
		}
	}

	b := New(runtime...).
		Name(opts.Name).
		State(initial).
		Dispatcher(opts.Dispatcher).
		Connect(opts.Connect)
	for _, m := range opts.Mixins {
		b.Mixin(m)
	}
	return b.Build()
}
