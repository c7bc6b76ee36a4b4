/*
Package fabstate binds declarative, reactive state objects to the scope of a form view.

A state is a plain tree of values in which function-valued leaves are computed fields. Each
state carries an action table for event dispatch, optional mixin tables that observe every
dispatch, and a connection that maps the form's input parameters into the state and the state
into the form's output parameters.

# Concept

The host environment (a view, a test, an HTTP server) owns a Scope: a set of named properties
plus an event bus. A Loader installs states on that scope under their names, wires the scope's
show and send events to the states' onshow and onsend actions, and on send merges every state's
output mapping into the output container before submitting the form.

# Usage

	scope := fabstate.NewScope()
	l, err := fabstate.NewLoader(scope)
	if err != nil {
		log.Fatal(err)
	}

	profile := fabstate.NewState().
		Name("profile").
		State(fabstate.Tree{
			"first": "Ada",
			"last":  "Lovelace",
			"full": fabstate.Computed(func(ctx *fabstate.Context) any {
				s := ctx.State()
				return s.Get("first").(string) + " " + s.Get("last").(string)
			}),
		}).
		Connect(fabstate.Connect{
			Output: func(_ *fabstate.Context, tree, _ fabstate.Tree) fabstate.Tree {
				return fabstate.Tree{"name": tree.Get("full")}
			},
		}).
		Build()

	if err := l.Register(profile); err != nil {
		log.Fatal(err)
	}
	if err := l.Send("final"); err != nil {
		log.Fatal(err)
	}

Computed fields stay live: every read recomputes against the current tree. Output mappings are
snapshotted eagerly, so submitted parameters never change after the send.

Forms can also be described declaratively in YAML manifests and replayed or served by the
fabstate command.
*/
package fabstate
