package tests

import (
	"errors"
	"testing"

	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/ports"
)

// ScopeContractTest is a reusable test suite that verifies if an adapter complies with ports.Scope.
// newScope must return an empty scope on every call.
func ScopeContractTest(t *testing.T, newScope func() ports.Scope) {
	t.Helper()

	// 1. Properties
	t.Run("Set_Get_Delete", func(t *testing.T) {
		scope := newScope()
		if _, ok := scope.Get("missing"); ok {
			t.Fatal("expected missing property to be absent")
		}
		if err := scope.Set("name", "ada"); err != nil {
			t.Fatalf("unexpected error setting property: %v", err)
		}
		if err := scope.Set("name", "grace"); err != nil {
			t.Fatalf("unexpected error overwriting property: %v", err)
		}
		v, ok := scope.Get("name")
		if !ok || v != "grace" {
			t.Errorf("got %v (present %v), want grace", v, ok)
		}
		scope.Delete("name")
		if _, ok := scope.Get("name"); ok {
			t.Error("expected property to be deleted")
		}
	})

	// 2. Read-only Properties
	t.Run("Define_IsReadOnly", func(t *testing.T) {
		scope := newScope()
		if err := scope.Define("fixed", 1); err != nil {
			t.Fatalf("unexpected error defining property: %v", err)
		}
		if err := scope.Set("fixed", 2); !errors.Is(err, domain.ErrReadOnly) {
			t.Errorf("expected ErrReadOnly from Set, got %v", err)
		}
		if err := scope.Define("fixed", 3); !errors.Is(err, domain.ErrReadOnly) {
			t.Errorf("expected ErrReadOnly from Define, got %v", err)
		}
		if v, _ := scope.Get("fixed"); v != 1 {
			t.Errorf("read-only property changed to %v", v)
		}
		scope.Delete("fixed")
		if err := scope.Set("fixed", 4); err != nil {
			t.Errorf("expected deleted read-only property to be writable again, got %v", err)
		}
	})

	// 3. Events
	t.Run("Emit_OrderAndCancel", func(t *testing.T) {
		scope := newScope()
		var got []string
		cancelFirst := scope.On("show", func(v any) { got = append(got, "first:"+v.(string)) })
		scope.On("show", func(v any) { got = append(got, "second:"+v.(string)) })
		scope.On("send", func(any) { got = append(got, "send") })

		scope.Emit("show", "a")
		cancelFirst()
		cancelFirst()
		scope.Emit("show", "b")

		want := []string{"first:a", "second:a", "second:b"}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("event %d: got %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("Emit_NoSubscribers", func(t *testing.T) {
		scope := newScope()
		scope.Emit("nobody", nil)
	})
}
