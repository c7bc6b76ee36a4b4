package domain

import (
	"reflect"
)

// SnapshotDiff represents the changes between two snapshots of a state.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// State is always present to identify the target.
	State string `json:"state"`

	// Changes contains only changed, added or deleted top-level keys.
	// For deletions, the key is present with a nil value.
	// Clients should merge these updates into their local copy.
	Changes map[string]any `json:"changes"`
}

// Diff calculates the difference between two snapshots of the named state.
// A nil oldSnap yields a diff carrying the entire newSnap (initial load).
// It returns nil when nothing changed.
func Diff(name string, oldSnap, newSnap map[string]any) *SnapshotDiff {
	delta := make(map[string]any)

	for k, newVal := range newSnap {
		oldVal, exists := oldSnap[k]
		if oldSnap == nil || !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range oldSnap {
		if _, exists := newSnap[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return &SnapshotDiff{State: name, Changes: delta}
}
