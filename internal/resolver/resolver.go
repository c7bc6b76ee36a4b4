// Package resolver replaces function-valued leaves of a state tree with either a
// one-shot value or a live accessor bound to the state's Context.
package resolver

import "github.com/aretw0/fabstate/pkg/domain"

// Mode selects how computed leaves are resolved.
type Mode int

const (
	// Lazy installs a *domain.Field that recomputes on every read.
	Lazy Mode = iota
	// Eager replaces the leaf with its value at call time.
	Eager
)

func (m Mode) String() string {
	if m == Eager {
		return "eager"
	}
	return "lazy"
}

// Resolve walks node in place and returns it.
// Only nested plain objects are descended into; arrays and other values are left untouched.
// In Lazy mode an existing Field is kept as is, so a second pass never re-wraps a leaf.
// In Eager mode existing Fields are collapsed into their current value as well.
func Resolve(node domain.Tree, mode Mode, ctx *domain.Context) domain.Tree {
	for key, value := range node {
		if fn, ok := domain.AsComputed(value); ok {
			if mode == Eager {
				node[key] = fn(ctx)
			} else {
				node[key] = domain.NewField(fn, ctx)
			}
			continue
		}
		if field, ok := value.(*domain.Field); ok {
			if mode == Eager {
				node[key] = field.Value()
			}
			continue
		}
		if child, ok := domain.AsTree(value); ok {
			Resolve(child, mode, ctx)
		}
	}
	return node
}
