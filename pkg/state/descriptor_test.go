package state_test

import (
	"bytes"
	"log/slog"
	"reflect"
	"testing"

	"github.com/aretw0/fabstate/internal/resolver"
	"github.com/aretw0/fabstate/pkg/adapters/memory"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterDispatcher(ctx *domain.Context, tree, host domain.Tree) domain.ActionTable {
	return domain.ActionTable{
		"increment": func(ctx *domain.Context, _ any) any {
			ctx.State()["count"] = ctx.State()["count"].(int) + 1
			return ctx.State()["count"]
		},
	}
}

func TestDescriptor_Increment(t *testing.T) {
	d := state.New().
		State(domain.Tree{"count": 0}).
		Dispatcher(counterDispatcher).
		Build()

	d.Init(nil, memory.NewScope(), nil)
	d.Dispatch("increment", nil)

	assert.Equal(t, 1, d.State().Get("count"))
	assert.True(t, d.InUse())
}

func TestDescriptor_DispatchOrder(t *testing.T) {
	var calls []string
	record := func(label string, ret any) domain.Factory {
		return func(ctx *domain.Context, tree, host domain.Tree) domain.ActionTable {
			return domain.ActionTable{
				"x": func(ctx *domain.Context, value any) any {
					calls = append(calls, label+":"+value.(string))
					return ret
				},
			}
		}
	}

	d := state.New().
		Dispatcher(record("primary", "result")).
		Mixin(record("m1", "ignored")).
		Mixin(func(*domain.Context, domain.Tree, domain.Tree) domain.ActionTable { return nil }).
		Mixin(record("m3", "ignored")).
		Build()
	d.Init(nil, memory.NewScope(), nil)

	t.Run("Mixins before primary and primary result returned", func(t *testing.T) {
		calls = nil
		got := d.Dispatch("x", "v")
		assert.Equal(t, []string{"m1:v", "m3:v", "primary:v"}, calls)
		assert.Equal(t, "result", got)
	})

	t.Run("Unknown action is a no-op", func(t *testing.T) {
		calls = nil
		assert.Nil(t, d.Dispatch("missing", "v"))
		assert.Empty(t, calls)
	})
}

func TestDescriptor_MixinOnlyActionReturnsNil(t *testing.T) {
	hit := false
	d := state.New().
		Mixin(func(*domain.Context, domain.Tree, domain.Tree) domain.ActionTable {
			return domain.ActionTable{"only": func(*domain.Context, any) any {
				hit = true
				return "discarded"
			}}
		}).
		Build()
	d.Init(nil, memory.NewScope(), nil)

	assert.Nil(t, d.Dispatch("only", nil))
	assert.True(t, hit)
}

func TestDescriptor_ComputedFieldsAreLive(t *testing.T) {
	d := state.New().
		State(domain.Tree{
			"count": 1,
			"label": func(ctx *domain.Context) any {
				return ctx.Name() + ":" + string(rune('0'+ctx.State()["count"].(int)))
			},
		}).
		Name("counter").
		Dispatcher(counterDispatcher).
		Build()
	d.Init(nil, memory.NewScope(), nil)

	first := d.State().Get("label")
	d.Dispatch("increment", nil)
	second := d.State().Get("label")

	assert.Equal(t, "counter:1", first)
	assert.Equal(t, "counter:2", second)
}

func TestDescriptor_InputMapping(t *testing.T) {
	d := state.New().
		State(domain.Tree{"first": "", "keep": true}).
		Connect(domain.Connect{
			Input: func(ctx *domain.Context, params, tree domain.Tree) domain.Tree {
				return domain.Tree{
					"first":  params["firstName"],
					"upper":  func(*domain.Context) any { return "ADA" },
					"greets": domain.Computed(func(c *domain.Context) any { return "hi " + c.State()["first"].(string) }),
				}
			},
		}).
		Build()

	d.Init(nil, memory.NewScope(), domain.Tree{"firstName": "Ada"})

	assert.Equal(t, "Ada", d.State()["first"])
	assert.Equal(t, true, d.State()["keep"])
	// Mapped functions are snapshotted before they reach the tree.
	assert.Equal(t, "ADA", d.State()["upper"])
	assert.Equal(t, "hi ", d.State()["greets"])
}

func TestDescriptor_InputMappingWithNilParams(t *testing.T) {
	var seen domain.Tree
	d := state.New().
		Connect(domain.Connect{
			Input: func(ctx *domain.Context, params, tree domain.Tree) domain.Tree {
				seen = params
				return nil
			},
		}).
		Build()

	d.Init(nil, memory.NewScope(), nil)

	assert.NotNil(t, seen)
	assert.Empty(t, seen)
}

func TestDescriptor_MapOutputParams(t *testing.T) {
	d := state.New().
		State(domain.Tree{
			"count":   1,
			"address": domain.Tree{"city": "Lisbon"},
			"double":  func(ctx *domain.Context) any { return ctx.State()["count"].(int) * 2 },
		}).
		Dispatcher(counterDispatcher).
		Connect(domain.Connect{
			Output: func(ctx *domain.Context, tree, host domain.Tree) domain.Tree {
				return domain.Tree{
					"total":   func(c *domain.Context) any { return c.State().Get("double") },
					"address": tree["address"],
					"raw":     tree,
					"source":  host["source"],
				}
			},
		}).
		Build()
	d.Init(nil, memory.NewScope(), nil)

	before := resolver.MaterializeTree(d.State())
	treeRef := d.State()
	out := d.MapOutputParams(domain.Tree{"source": "test"})

	t.Run("Result is a snapshot", func(t *testing.T) {
		d.Dispatch("increment", nil)
		assert.Equal(t, 2, out["total"])
		assert.Equal(t, "test", out["source"])
		assert.Equal(t, 2, out.Get("raw.double"))
	})

	t.Run("State tree untouched", func(t *testing.T) {
		assert.Equal(t, reflect.ValueOf(treeRef).Pointer(), reflect.ValueOf(d.State()).Pointer())
		assert.IsType(t, &domain.Field{}, d.State()["double"])
		assert.Equal(t, before["address"], resolver.MaterializeTree(d.State())["address"])
		out.Set("address.city", "Porto")
		assert.Equal(t, "Lisbon", d.State().Get("address.city"))
	})
}

func TestDescriptor_MapOutputParamsWithoutMapper(t *testing.T) {
	d := state.New().Build()
	d.Init(nil, memory.NewScope(), nil)
	assert.Equal(t, domain.Tree{}, d.MapOutputParams(nil))
}

func TestDescriptor_ScopeEvents(t *testing.T) {
	var got []any
	d := state.New().
		Dispatcher(func(ctx *domain.Context, tree, host domain.Tree) domain.ActionTable {
			return domain.ActionTable{
				domain.ActionOnShow: func(_ *domain.Context, v any) any { got = append(got, "show", v); return nil },
				domain.ActionOnSend: func(_ *domain.Context, v any) any { got = append(got, "send", v); return nil },
			}
		}).
		Build()
	scope := memory.NewScope()
	d.Init(nil, scope, nil)

	scope.Emit(domain.EventShow, nil)
	scope.Emit(domain.EventSend, true)
	assert.Equal(t, []any{"show", nil, "send", true}, got)

	d.Release()
	scope.Emit(domain.EventShow, nil)
	assert.Len(t, got, 4)
	assert.Equal(t, 0, scope.Subscribers(domain.EventShow))
}

func TestDescriptor_ContextBinding(t *testing.T) {
	var ctxs []*domain.Context
	capture := func(ctx *domain.Context, tree, host domain.Tree) domain.ActionTable {
		ctxs = append(ctxs, ctx)
		return nil
	}
	scope := memory.NewScope()
	d := state.New().Name("form").Dispatcher(capture).Mixin(capture).Build()

	d.Init(nil, scope, nil)

	require.Len(t, ctxs, 2)
	assert.Same(t, ctxs[0], ctxs[1])
	assert.Same(t, d.Context(), ctxs[0])
	assert.Equal(t, "form", d.Context().Name())
	assert.Same(t, scope, d.Context().Scope())
}

func TestDescriptor_Use(t *testing.T) {
	d := state.New().Build()
	assert.False(t, d.InUse())
	d.Init(nil, memory.NewScope(), nil)
	assert.True(t, d.InUse())
	d.Use(false)
	assert.False(t, d.InUse())
}

func TestDescriptor_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	d := state.New(state.WithLogger(logger), state.WithDebug(true)).
		Name("dbg").
		State(domain.Tree{"count": 0}).
		Dispatcher(counterDispatcher).
		Build()
	d.Init(nil, memory.NewScope(), nil)

	d.Dispatch("increment", nil)

	assert.Contains(t, buf.String(), `"state":"dbg"`)
	assert.Contains(t, buf.String(), `"action":"increment"`)
	assert.Contains(t, buf.String(), `"count":1`)
}

func TestDescriptor_DispatchHook(t *testing.T) {
	var events []*domain.DispatchEvent
	d := state.New(state.WithLifecycleHooks(domain.LifecycleHooks{
		OnDispatch: func(e *domain.DispatchEvent) { events = append(events, e) },
	})).
		Dispatcher(counterDispatcher).
		State(domain.Tree{"count": 0}).
		Build()
	d.Init(nil, memory.NewScope(), nil)

	d.Dispatch("increment", nil)
	d.Dispatch("nope", nil)

	require.Len(t, events, 2)
	assert.True(t, events[0].Handled)
	assert.False(t, events[1].Handled)
	assert.Equal(t, "nope", events[1].Action)
}

func TestDescriptor_InitAgainRebuildsTables(t *testing.T) {
	scope := memory.NewScope()
	mixinCalls, sends := 0, 0
	d := state.New().Name("again").
		Dispatcher(func(*domain.Context, domain.Tree, domain.Tree) domain.ActionTable {
			return domain.ActionTable{domain.ActionOnSend: func(*domain.Context, any) any { sends++; return nil }}
		}).
		Mixin(func(*domain.Context, domain.Tree, domain.Tree) domain.ActionTable {
			return domain.ActionTable{domain.ActionOnSend: func(*domain.Context, any) any { mixinCalls++; return nil }}
		}).
		Build()

	d.Init(nil, scope, nil)
	d.Init(nil, scope, nil)

	scope.Emit(domain.EventSend, true)

	assert.Equal(t, 1, mixinCalls)
	assert.Equal(t, 1, sends)
	assert.Equal(t, 1, scope.Subscribers(domain.EventSend))
}
