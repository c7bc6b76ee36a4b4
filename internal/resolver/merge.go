package resolver

import "github.com/aretw0/fabstate/pkg/domain"

// Merge deep-merges src into dst and returns dst. Nested objects present on both sides are
// merged key by key; otherwise the src value overwrites. Objects copied over from src are
// cloned so dst never aliases src's maps. A nil dst yields a fresh tree.
func Merge(dst, src domain.Tree) domain.Tree {
	if dst == nil {
		dst = domain.Tree{}
	}
	for key, value := range src {
		srcChild, srcIsTree := domain.AsTree(value)
		if !srcIsTree {
			dst[key] = value
			continue
		}
		if dstChild, ok := domain.AsTree(dst[key]); ok {
			Merge(dstChild, srcChild)
			continue
		}
		dst[key] = Merge(domain.Tree{}, srcChild)
	}
	return dst
}

// Clone copies the object structure of t, keeping each nested object's map type.
// Leaves, including Fields, are shared.
func Clone(t domain.Tree) domain.Tree {
	if t == nil {
		return nil
	}
	out := make(domain.Tree, len(t))
	for key, value := range t {
		switch child := value.(type) {
		case domain.Tree:
			out[key] = Clone(child)
		case map[string]any:
			if child == nil {
				out[key] = value
				continue
			}
			out[key] = map[string]any(Clone(child))
		default:
			out[key] = value
		}
	}
	return out
}
