/*
Package state builds and runs state descriptors.

A Builder collects the initial tree, the dispatcher factory, mixins and the connect
mappings. Build yields a Descriptor, which a loader initialises against a form scope:

	profile := state.New().
		Name("profile").
		State(domain.Tree{"count": 0}).
		Dispatcher(func(ctx *domain.Context, tree, host domain.Tree) domain.ActionTable {
			return domain.ActionTable{
				"increment": func(ctx *domain.Context, _ any) any {
					ctx.State()["count"] = ctx.State()["count"].(int) + 1
					return nil
				},
			}
		}).
		Build()

Dispatching runs every mixin handler for the action in registration order, then the
primary handler, whose result is returned. Unknown actions are a silent no-op.
*/
package state
