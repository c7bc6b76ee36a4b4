package loader

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/fabstate/internal/logging"
	"github.com/aretw0/fabstate/internal/resolver"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/ports"
	"github.com/aretw0/fabstate/pkg/state"
)

// Loader manages the states bound to one scope.
// Like the scope itself, it is not safe for concurrent use.
type Loader struct {
	scope  ports.Scope
	cfg    Config
	host   domain.Tree
	states map[string]*state.Descriptor
	order  []string
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// New creates a loader for scope. It publishes the host context on the scope and installs
// the send and show triggers; it fails if one of those properties is already read-only.
func New(scope ports.Scope, opts ...Option) (*Loader, error) {
	l := &Loader{
		scope:  scope,
		cfg:    DefaultConfig(),
		host:   domain.Tree{},
		states: make(map[string]*state.Descriptor),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := scope.Set(domain.HostContextKey, l.host); err != nil {
		return nil, fmt.Errorf("failed to publish host context: %w", err)
	}
	if err := scope.Define(l.cfg.SendProp, ports.Trigger(l.Send)); err != nil {
		return nil, fmt.Errorf("failed to install send trigger: %w", err)
	}
	if err := scope.Define(l.cfg.ShowProp, ports.Trigger(func(...any) error {
		l.Show()
		return nil
	})); err != nil {
		return nil, fmt.Errorf("failed to install show trigger: %w", err)
	}
	return l, nil
}

// Config returns the effective configuration.
func (l *Loader) Config() Config { return l.cfg }

// HostContext returns the host context shared with the states.
func (l *Loader) HostContext() domain.Tree { return l.host }

// Register is Use with input mapping enabled.
func (l *Loader) Register(d *state.Descriptor) error {
	return l.Use(d, true)
}

// Use registers d under its name and binds its view on the scope.
// A scope property of that name that is not this state's view is a naming conflict.
// When mapParams is set, d is initialised with the scope's input parameters.
// Using an instance whose view is already bound on the scope again only initialises it,
// and only when mapParams is set and d is not in use yet; otherwise it is a no-op.
func (l *Loader) Use(d *state.Descriptor, mapParams bool) error {
	name := d.Name()

	if existing, ok := l.scope.Get(name); ok {
		view, isView := existing.(*state.View)
		if !isView || view.Descriptor() != d {
			l.logger.Warn("State name collides with scope property", "state", name)
			return &domain.NamingConflictError{Key: name}
		}
		if mapParams && !d.InUse() {
			d.Init(l.host, l.scope, l.inputParams())
			l.logger.Debug("State initialised after registration", "state", name)
		}
		return nil
	}

	if err := l.scope.Define(name, d.View()); err != nil {
		return fmt.Errorf("failed to bind state %s: %w", name, err)
	}

	if mapParams {
		d.Init(l.host, l.scope, l.inputParams())
	}

	if _, ok := l.states[name]; !ok {
		l.order = append(l.order, name)
	}
	l.states[name] = d

	l.logger.Debug("State registered", "state", name, "mapped", mapParams)
	if l.hooks.OnRegister != nil {
		l.hooks.OnRegister(&domain.StateEvent{
			EventBase: domain.NewEventBase(domain.EventStateRegister),
			State:     name,
		})
	}
	return nil
}

// Stop deregisters name: the scope binding and registry entry are removed and the state
// stops receiving scope events before being deactivated. Unknown names are ignored.
func (l *Loader) Stop(name string) {
	d, ok := l.states[name]
	if !ok {
		return
	}

	l.scope.Delete(name)
	delete(l.states, name)
	for i, n := range l.order {
		if n == name {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	d.Release()
	d.Use(false)

	l.logger.Debug("State stopped", "state", name)
	if l.hooks.OnStop != nil {
		l.hooks.OnStop(&domain.StateEvent{
			EventBase: domain.NewEventBase(domain.EventStateStop),
			State:     name,
		})
	}
}

// Get returns the registered descriptor for name.
func (l *Loader) Get(name string) (*state.Descriptor, bool) {
	d, ok := l.states[name]
	return d, ok
}

// States returns the registered names in registration order.
func (l *Loader) States() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Show emits the show event to every state.
func (l *Loader) Show() {
	l.scope.Emit(domain.EventShow, nil)
}

// Send emits the send event and submits the form.
//
// Arguments follow the trigger convention: Send(tag), Send(tag, save) or Send(save).
// A first argument that is not a string is taken as the save flag. Save defaults to true;
// when it is explicitly false the form is submitted without merging output parameters.
func (l *Loader) Send(args ...any) error {
	tag, save := normalizeSend(args)

	l.scope.Emit(domain.EventSend, save)

	var merged []string
	if save {
		out := l.outputParams()
		for _, name := range l.order {
			resolver.Merge(out, l.states[name].MapOutputParams(l.host))
			merged = append(merged, name)
		}
	}

	err := l.scope.SendForm(tag)

	l.logger.Debug("Form sent", "tag", tag, "save", save, "states", merged)
	if l.hooks.OnSend != nil {
		l.hooks.OnSend(&domain.SendEvent{
			EventBase: domain.NewEventBase(domain.EventFormSend),
			Tag:       tag,
			Save:      save,
			States:    merged,
			Err:       err,
		})
	}
	return err
}

func normalizeSend(args []any) (tag string, save bool) {
	save = true
	if len(args) == 0 {
		return "", save
	}
	rest := args
	if s, ok := args[0].(string); ok {
		tag = s
		rest = args[1:]
	}
	if len(rest) > 0 {
		if b, ok := rest[0].(bool); ok {
			save = b
		}
	}
	return tag, save
}

func (l *Loader) inputParams() domain.Tree {
	v, ok := l.scope.Get(l.cfg.InputProp)
	if !ok {
		return domain.Tree{}
	}
	return domain.OnlyTree(domain.Value(v))
}

// outputParams returns the scope's output container, creating it when missing.
func (l *Loader) outputParams() domain.Tree {
	if v, ok := l.scope.Get(l.cfg.OutputProp); ok {
		if t, ok := domain.AsTree(domain.Value(v)); ok {
			return t
		}
	}
	out := domain.Tree{}
	if err := l.scope.Set(l.cfg.OutputProp, out); err != nil {
		l.logger.Warn("Output container is not writable", "prop", l.cfg.OutputProp, "err", err)
	}
	return out
}
