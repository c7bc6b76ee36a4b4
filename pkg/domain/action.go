package domain

// Action handles one named action. The returned value is only kept for the primary dispatcher.
type Action func(ctx *Context, value any) any

// ActionTable maps action names to handlers.
type ActionTable map[string]Action

// Call invokes the named action when present. Unknown actions are a no-op.
func (t ActionTable) Call(ctx *Context, action string, value any) (any, bool) {
	fn, ok := t[action]
	if !ok || fn == nil {
		return nil, false
	}
	return fn(ctx, value), true
}

// Has reports whether the table holds a handler for action.
func (t ActionTable) Has(action string) bool {
	fn, ok := t[action]
	return ok && fn != nil
}

// Factory produces an ActionTable for a state. Dispatchers and mixins share this signature.
type Factory func(ctx *Context, state Tree, host Tree) ActionTable

// InputMapper computes state fields from the host input parameters.
type InputMapper func(ctx *Context, params Tree, state Tree) Tree

// OutputMapper computes host output fields from the state.
type OutputMapper func(ctx *Context, state Tree, host Tree) Tree

// Connect holds the parameter mapping functions of a state.
type Connect struct {
	Input  InputMapper
	Output OutputMapper
}
