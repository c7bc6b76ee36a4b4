package domain

import "github.com/aretw0/fabstate/pkg/ports"

// Context is the single object shared by the dispatcher, the mixins and every computed
// field of one state instance. Name and scope are bound once; the state tree reference
// never changes after construction.
type Context struct {
	name  string
	scope ports.Scope
	state Tree
	bound bool
}

// NewContext creates the context owning the given state tree.
func NewContext(state Tree) *Context {
	if state == nil {
		state = Tree{}
	}
	return &Context{state: state}
}

// Bind attaches the registration name and the scope. Only the first call has any effect.
func (c *Context) Bind(name string, scope ports.Scope) {
	if c.bound {
		return
	}
	c.name = name
	c.scope = scope
	c.bound = true
}

// Bound reports whether Bind has run.
func (c *Context) Bound() bool { return c.bound }

// Name returns the bound state name (empty before Bind).
func (c *Context) Name() string { return c.name }

// Scope returns the bound form scope (nil before Bind).
func (c *Context) Scope() ports.Scope { return c.scope }

// State returns the state tree.
func (c *Context) State() Tree { return c.state }
