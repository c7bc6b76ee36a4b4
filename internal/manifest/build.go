package manifest

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/fabstate/internal/logging"
	"github.com/aretw0/fabstate/internal/resolver"
	"github.com/aretw0/fabstate/pkg/adapters/memory"
	"github.com/aretw0/fabstate/pkg/decorators"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/loader"
	"github.com/aretw0/fabstate/pkg/ports"
	"github.com/aretw0/fabstate/pkg/state"
)

// Expression variables available to manifest expressions, besides state.
const (
	ValueVar  = "value"
	HostVar   = "host"
	ParamsVar = "params"
)

// Form is a manifest compiled onto an in-memory scope.
type Form struct {
	Manifest *Manifest
	Scope    *memory.Scope
	Loader   *loader.Loader
}

// Option configures Build.
type Option func(*buildSettings)

type buildSettings struct {
	submitter ports.Submitter
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	debug     bool
}

// WithSubmitter sets the destination of submitted forms.
func WithSubmitter(s ports.Submitter) Option {
	return func(b *buildSettings) {
		b.submitter = s
	}
}

// WithLogger sets the logger used by the scope, the loader and every state.
func WithLogger(logger *slog.Logger) Option {
	return func(b *buildSettings) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithLifecycleHooks attaches hooks to the loader and every state.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *buildSettings) {
		b.hooks = domain.MergeHooks(b.hooks, hooks)
	}
}

// WithDebug turns dispatch logging on for every state.
func WithDebug(debug bool) Option {
	return func(b *buildSettings) {
		b.debug = debug
	}
}

// Build validates m and registers its states on a fresh scope.
// The manifest itself is not mutated by the running form.
func Build(m *Manifest, opts ...Option) (*Form, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}

	settings := &buildSettings{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(settings)
	}

	cfg := m.Loader.WithDefaults()
	scopeOpts := []memory.Option{
		memory.WithOutputKey(cfg.OutputProp),
		memory.WithLogger(settings.logger),
		memory.WithProperties(map[string]any{
			cfg.InputProp: detach(m.Input),
		}),
	}
	if settings.submitter != nil {
		scopeOpts = append(scopeOpts, memory.WithSubmitter(settings.submitter))
	}
	scope := memory.NewScope(scopeOpts...)

	l, err := loader.New(scope,
		loader.WithConfig(cfg),
		loader.WithLogger(settings.logger),
		loader.WithLifecycleHooks(settings.hooks),
		loader.WithHostContext(detach(m.Context)),
	)
	if err != nil {
		return nil, err
	}

	c := &compiler{m: m, settings: settings}
	for _, def := range m.States {
		d, err := c.state(def.Name, def)
		if err != nil {
			return nil, err
		}
		mapParams := def.MapParams == nil || *def.MapParams
		if err := guard(func() error { return l.Use(d, mapParams) }); err != nil {
			return nil, fmt.Errorf("failed to register state %s: %w", def.Name, err)
		}
	}

	return &Form{Manifest: m, Scope: scope, Loader: l}, nil
}

// Output returns a detached copy of the output parameters.
func (f *Form) Output() map[string]any {
	v, ok := f.Scope.Get(f.Loader.Config().OutputProp)
	if !ok {
		return map[string]any{}
	}
	if t, ok := domain.AsTree(domain.Value(v)); ok {
		return resolver.MaterializeTree(t)
	}
	return map[string]any{}
}

// Snapshots returns a snapshot of every registered state.
func (f *Form) Snapshots() map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, name := range f.Loader.States() {
		if d, ok := f.Loader.Get(name); ok {
			out[name] = d.View().Snapshot()
		}
	}
	return out
}

type compiler struct {
	m        *Manifest
	settings *buildSettings
}

type assignment struct {
	path    string
	program *decorators.Program
}

type compiledAction struct {
	set []assignment
	ret *decorators.Program
}

func (c *compiler) state(name string, def StateSpec) (*state.Descriptor, error) {
	tree := detach(def.State)

	for _, path := range sortedKeys(def.Computed) {
		fn, err := decorators.Expression(def.Computed[path], nil)
		if err != nil {
			return nil, fmt.Errorf("state %s: computed %s: %w", name, path, err)
		}
		tree.Set(path, fn)
	}

	for _, path := range sortedKeys(def.Substates) {
		sub := def.Substates[path]
		subName := sub.Name
		if subName == "" {
			subName = path
		}
		child, err := c.state(subName, sub)
		if err != nil {
			return nil, err
		}
		tree.Set(path, decorators.Substate(child))
	}

	b := state.New(
		state.WithLogger(c.settings.logger),
		state.WithDebug(def.Debug || c.settings.debug),
		state.WithLifecycleHooks(c.settings.hooks),
	).Name(name).State(tree)

	actions, err := compileActions(def.Actions)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", name, err)
	}
	if len(actions) > 0 {
		b.Dispatcher(actionFactory(name, actions))
	}

	for _, mixin := range def.Mixins {
		actions, err := compileActions(c.m.Mixins[mixin].Actions)
		if err != nil {
			return nil, fmt.Errorf("mixin %s: %w", mixin, err)
		}
		b.Mixin(actionFactory(name, actions))
	}

	connect, err := compileConnect(name, def.Connect)
	if err != nil {
		return nil, err
	}
	b.Connect(connect)

	return b.Build(), nil
}

func compileActions(defs map[string]ActionSpec) (map[string]compiledAction, error) {
	out := make(map[string]compiledAction, len(defs))
	for _, name := range sortedKeys(defs) {
		def := defs[name]
		var ca compiledAction
		for _, path := range sortedKeys(def.Set) {
			p, err := decorators.Compile(def.Set[path])
			if err != nil {
				return nil, fmt.Errorf("action %s: set %s: %w", name, path, err)
			}
			ca.set = append(ca.set, assignment{path: path, program: p})
		}
		if def.Return != "" {
			p, err := decorators.Compile(def.Return)
			if err != nil {
				return nil, fmt.Errorf("action %s: return: %w", name, err)
			}
			ca.ret = p
		}
		out[name] = ca
	}
	return out, nil
}

func actionFactory(stateName string, actions map[string]compiledAction) domain.Factory {
	return func(_ *domain.Context, tree, host domain.Tree) domain.ActionTable {
		table := make(domain.ActionTable, len(actions))
		for name, ca := range actions {
			table[name] = ca.bind(stateName, name, tree, host)
		}
		return table
	}
}

// bind evaluates every assignment before writing any, so assignments see the prior state.
func (ca compiledAction) bind(stateName, action string, tree, host domain.Tree) domain.Action {
	return func(ctx *domain.Context, value any) any {
		locals := map[string]any{ValueVar: value, HostVar: host}
		values := make([]any, len(ca.set))
		for i, a := range ca.set {
			values[i] = evaluate(a.program, ctx, locals, stateName, action)
		}
		for i, a := range ca.set {
			tree.Set(a.path, values[i])
		}
		if ca.ret == nil {
			return nil
		}
		return evaluate(ca.ret, ctx, locals, stateName, action)
	}
}

func compileConnect(stateName string, def ConnectSpec) (domain.Connect, error) {
	var connect domain.Connect

	input, err := compileMapping(def.Input)
	if err != nil {
		return connect, fmt.Errorf("state %s: input: %w", stateName, err)
	}
	if len(input) > 0 {
		connect.Input = func(ctx *domain.Context, params, _ domain.Tree) domain.Tree {
			return input.apply(ctx, map[string]any{ParamsVar: params}, stateName, "connect.input")
		}
	}

	output, err := compileMapping(def.Output)
	if err != nil {
		return connect, fmt.Errorf("state %s: output: %w", stateName, err)
	}
	if len(output) > 0 {
		connect.Output = func(ctx *domain.Context, _, host domain.Tree) domain.Tree {
			return output.apply(ctx, map[string]any{HostVar: host}, stateName, "connect.output")
		}
	}
	return connect, nil
}

type mapping []assignment

func compileMapping(def map[string]string) (mapping, error) {
	var m mapping
	for _, path := range sortedKeys(def) {
		p, err := decorators.Compile(def[path])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		m = append(m, assignment{path: path, program: p})
	}
	return m, nil
}

func (m mapping) apply(ctx *domain.Context, locals map[string]any, stateName, where string) domain.Tree {
	out := domain.Tree{}
	for _, a := range m {
		out.Set(a.path, evaluate(a.program, ctx, locals, stateName, where))
	}
	return out
}

func evaluate(p *decorators.Program, ctx *domain.Context, locals map[string]any, stateName, action string) any {
	v, err := p.Eval(ctx, locals)
	if err != nil {
		panic(&ActionError{State: stateName, Action: action, Err: err})
	}
	return v
}

// detach deep-copies a decoded map into a tree owned by the form.
func detach(m map[string]any) domain.Tree {
	if m == nil {
		return domain.Tree{}
	}
	return domain.OnlyTree(resolver.Materialize(m))
}
