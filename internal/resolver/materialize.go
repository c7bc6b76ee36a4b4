package resolver

import "github.com/aretw0/fabstate/pkg/domain"

// Materialize returns a detached copy of v with every Field read once.
// Objects become map[string]any and []any slices are copied element by element.
func Materialize(v any) any {
	v = domain.Value(v)
	if t, ok := domain.AsTree(v); ok {
		return MaterializeTree(t)
	}
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = Materialize(item)
		}
		return out
	}
	return v
}

// MaterializeTree is Materialize for a tree. Computed leaves that were never resolved are
// dropped since they have no value without a Context.
func MaterializeTree(t domain.Tree) map[string]any {
	out := make(map[string]any, len(t))
	for key, value := range t {
		if _, ok := domain.AsComputed(value); ok {
			continue
		}
		out[key] = Materialize(value)
	}
	return out
}
