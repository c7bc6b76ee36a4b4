package state

import (
	"fmt"

	"github.com/aretw0/fabstate/internal/resolver"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// View is the read-only face of a state that the loader binds on the scope.
// It holds the tree reference captured when it was created.
type View struct {
	desc *Descriptor
	tree domain.Tree
}

// Name returns the state name.
func (v *View) Name() string { return v.desc.name }

// Descriptor returns the owning descriptor.
func (v *View) Descriptor() *Descriptor { return v.desc }

// Tree returns the captured tree reference.
func (v *View) Tree() domain.Tree { return v.tree }

// Get reads a dotted path, evaluating computed fields.
func (v *View) Get(path string) any { return v.tree.Get(path) }

// Lookup is Get with a presence flag.
func (v *View) Lookup(path string) (any, bool) { return v.tree.Lookup(path) }

// Snapshot returns a detached copy with every computed field evaluated.
func (v *View) Snapshot() map[string]any { return resolver.MaterializeTree(v.tree) }

// Dispatch forwards to the owning descriptor.
func (v *View) Dispatch(action string, value any) any {
	return v.desc.Dispatch(action, value)
}

// Decode copies a snapshot of the tree into out, a pointer to a struct or map.
func (v *View) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(v.Snapshot()); err != nil {
		return fmt.Errorf("failed to decode state %s: %w", v.desc.name, err)
	}
	return nil
}
