package domain

import "strings"

// Tree is the plain nested-object value of a state.
// Nested plain objects are Tree or map[string]any values; everything else is a leaf.
type Tree map[string]any

// AsTree reports whether v is a plain object and returns it as a Tree.
func AsTree(v any) (Tree, bool) {
	switch t := v.(type) {
	case Tree:
		return t, t != nil
	case map[string]any:
		return Tree(t), t != nil
	default:
		return nil, false
	}
}

// OnlyTree returns v as a Tree, substituting an empty Tree for anything that is not a plain object.
func OnlyTree(v any) Tree {
	if t, ok := AsTree(v); ok {
		return t
	}
	return Tree{}
}

// SplitPath splits a dotted path into its segments. An empty path has no segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Value unwraps a computed Field into its current value; any other value is returned as is.
func Value(v any) any {
	if f, ok := v.(*Field); ok {
		return f.Value()
	}
	return v
}

// Lookup resolves a dotted path against the tree, reading computed fields along the way.
func (t Tree) Lookup(path string) (any, bool) {
	return LookupPath(t, SplitPath(path))
}

// Get is Lookup without the presence flag.
func (t Tree) Get(path string) any {
	v, _ := t.Lookup(path)
	return v
}

// LookupPath resolves the segments against t. With no segments the tree itself is returned.
func LookupPath(t Tree, segments []string) (any, bool) {
	var cur any = t
	for _, seg := range segments {
		node, ok := AsTree(Value(cur))
		if !ok {
			return nil, false
		}
		cur, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return Value(cur), true
}

// Set writes v at the dotted path, creating intermediate objects as needed.
// A computed field is read-only: writing to it (or through a non-object value
// produced by one) is ignored and Set returns false.
func (t Tree) Set(path string, v any) bool {
	return SetPath(t, SplitPath(path), v)
}

// SetPath is Set with a pre-split path.
func SetPath(t Tree, segments []string, v any) bool {
	if len(segments) == 0 || t == nil {
		return false
	}
	node := t
	for _, seg := range segments[:len(segments)-1] {
		next, exists := node[seg]
		if f, ok := next.(*Field); ok {
			child, ok := AsTree(f.Value())
			if !ok {
				return false
			}
			node = child
			continue
		}
		child, ok := AsTree(next)
		if !ok || !exists {
			child = Tree{}
			node[seg] = child
		}
		node = child
	}
	last := segments[len(segments)-1]
	if _, ok := node[last].(*Field); ok {
		return false
	}
	node[last] = v
	return true
}
