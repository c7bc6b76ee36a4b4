package fabstate

import (
	"github.com/aretw0/fabstate/pkg/adapters/memory"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/loader"
	"github.com/aretw0/fabstate/pkg/ports"
	"github.com/aretw0/fabstate/pkg/state"
)

// Version is the release of the fabstate module.
var Version = "0.1.0"

// Core types, re-exported for callers that only need the facade.
type (
	Tree         = domain.Tree
	Context      = domain.Context
	Computed     = domain.Computed
	Action       = domain.Action
	ActionTable  = domain.ActionTable
	Factory      = domain.Factory
	Connect      = domain.Connect
	InputMapper  = domain.InputMapper
	OutputMapper = domain.OutputMapper
	Scope        = ports.Scope
	StateOptions = state.Options
)

// NewState starts a state definition with the default name.
func NewState(opts ...state.Option) *state.Builder {
	return state.New(opts...)
}

// CreateState builds a state in one call from opts.
func CreateState(opts StateOptions, runtime ...state.Option) *state.Descriptor {
	return state.Create(opts, runtime...)
}

// NewLoader creates a loader bound to scope.
func NewLoader(scope Scope, opts ...loader.Option) (*loader.Loader, error) {
	return loader.New(scope, opts...)
}

// NewScope creates an in-memory scope, for hosts without a view layer of their own.
func NewScope(opts ...memory.Option) *memory.Scope {
	return memory.NewScope(opts...)
}
