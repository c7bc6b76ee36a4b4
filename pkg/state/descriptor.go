package state

import (
	"log/slog"

	"github.com/aretw0/fabstate/internal/resolver"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/ports"
)

// Descriptor is a built state: its tree, action tables and connect mappings.
// It is not safe for concurrent use.
type Descriptor struct {
	name       string
	tree       domain.Tree
	ctx        *domain.Context
	dispatcher domain.Factory
	mixins     []domain.Factory
	connect    domain.Connect

	actions      domain.ActionTable
	mixinActions []domain.ActionTable
	cancels      []func()
	inUse        bool

	logger *slog.Logger
	debug  bool
	hooks  domain.LifecycleHooks
}

// Name returns the registration name.
func (d *Descriptor) Name() string { return d.name }

// State returns the state tree.
func (d *Descriptor) State() domain.Tree { return d.tree }

// Context returns the shared context of the instance.
func (d *Descriptor) Context() *domain.Context { return d.ctx }

// View returns a read-only accessor over the current tree.
func (d *Descriptor) View() *View { return &View{desc: d, tree: d.tree} }

// Init binds the descriptor to scope and runs, in order: context binding, dispatcher and mixin
// factories, eager input mapping merged into the tree, lazy resolution of the whole tree, and
// subscription to the scope's show and send events.
// Calling Init again, as a loader does when a stopped state is registered anew, rebuilds the
// action tables and subscriptions instead of adding to them.
func (d *Descriptor) Init(host domain.Tree, scope ports.Scope, params domain.Tree) *Descriptor {
	if host == nil {
		host = domain.Tree{}
	}
	d.ctx.Bind(d.name, scope)
	d.Release()
	d.actions = domain.ActionTable{}
	d.mixinActions = nil

	if d.dispatcher != nil {
		for action, fn := range d.dispatcher(d.ctx, d.tree, host) {
			d.actions[action] = fn
		}
	}

	for _, mixin := range d.mixins {
		table := mixin(d.ctx, d.tree, host)
		if table == nil {
			table = domain.ActionTable{}
		}
		d.mixinActions = append(d.mixinActions, table)
	}

	if d.connect.Input != nil {
		mapped := d.connect.Input(d.ctx, domain.OnlyTree(params), d.tree)
		if mapped != nil {
			resolver.Merge(d.tree, resolver.Resolve(mapped, resolver.Eager, d.ctx))
		}
	}

	resolver.Resolve(d.tree, resolver.Lazy, d.ctx)

	if scope != nil {
		d.cancels = append(d.cancels,
			scope.On(domain.EventShow, func(value any) {
				d.Dispatch(domain.ActionOnShow, value)
			}),
			scope.On(domain.EventSend, func(value any) {
				d.Dispatch(domain.ActionOnSend, value)
			}),
		)
	}

	d.inUse = true
	d.logger.Debug("state initialised",
		"state", d.name,
		"actions", len(d.actions),
		"mixins", len(d.mixinActions),
	)
	if d.hooks.OnInit != nil {
		d.hooks.OnInit(&domain.StateEvent{
			EventBase: domain.NewEventBase(domain.EventStateInit),
			State:     d.name,
		})
	}
	return d
}

// Dispatch routes action through every mixin table in registration order, then through the
// primary table, and returns the primary handler's result (nil when it has no such action).
func (d *Descriptor) Dispatch(action string, value any) any {
	mixins := 0
	for _, table := range d.mixinActions {
		if _, ok := table.Call(d.ctx, action, value); ok {
			mixins++
		}
	}

	result, handled := d.actions.Call(d.ctx, action, value)

	if d.debug {
		d.logger.Info("dispatch",
			"state", d.name,
			"action", action,
			"snapshot", resolver.MaterializeTree(d.tree),
		)
	}
	if d.hooks.OnDispatch != nil {
		d.hooks.OnDispatch(&domain.DispatchEvent{
			EventBase: domain.NewEventBase(domain.EventDispatch),
			State:     d.name,
			Action:    action,
			Handled:   handled,
			Mixins:    mixins,
		})
	}
	return result
}

// MapOutputParams runs the output mapping and snapshots the result eagerly.
// The state tree is left untouched: objects in the mapper's result are cloned before resolution.
func (d *Descriptor) MapOutputParams(host domain.Tree) domain.Tree {
	if d.connect.Output == nil {
		return domain.Tree{}
	}
	if host == nil {
		host = domain.Tree{}
	}
	mapped := d.connect.Output(d.ctx, d.tree, host)
	if mapped == nil {
		return domain.Tree{}
	}
	return resolver.Resolve(resolver.Clone(mapped), resolver.Eager, d.ctx)
}

// Use marks the descriptor as active or inactive.
func (d *Descriptor) Use(active bool) *Descriptor {
	d.inUse = active
	return d
}

// InUse reports whether the descriptor is active.
func (d *Descriptor) InUse() bool { return d.inUse }

// Release cancels the scope subscriptions installed by Init.
func (d *Descriptor) Release() {
	for _, cancel := range d.cancels {
		if cancel != nil {
			cancel()
		}
	}
	d.cancels = nil
}
