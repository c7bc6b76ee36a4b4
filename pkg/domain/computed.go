package domain

import "encoding/json"

// Computed is a function-valued leaf of a Tree.
type Computed func(ctx *Context) any

// AsComputed reports whether v is a computed leaf. Plain function literals of the
// same signature are accepted too, since they do not carry the named type.
func AsComputed(v any) (Computed, bool) {
	switch fn := v.(type) {
	case Computed:
		return fn, fn != nil
	case func(*Context) any:
		return fn, fn != nil
	default:
		return nil, false
	}
}

// Field is a live accessor installed in place of a Computed leaf.
// Every read re-invokes the function; nothing is cached.
type Field struct {
	fn   Computed
	ctx  *Context
	busy bool
}

// NewField binds fn to ctx.
func NewField(fn Computed, ctx *Context) *Field {
	return &Field{fn: fn, ctx: ctx}
}

// Value computes the field. A field read from inside its own computation yields nil.
func (f *Field) Value() any {
	if f == nil || f.fn == nil || f.busy {
		return nil
	}
	f.busy = true
	defer func() { f.busy = false }()
	return f.fn(f.ctx)
}

// MarshalJSON encodes the current value.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value())
}
