package fabstate_test

import (
	"errors"
	"testing"

	"github.com/aretw0/fabstate"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade_NamingConflict(t *testing.T) {
	scope := fabstate.NewScope()
	require.NoError(t, scope.Set("profile", "taken"))

	l, err := fabstate.NewLoader(scope, loader.WithConfig(loader.Config{OutputProp: "result"}))
	require.NoError(t, err)

	err = l.Register(fabstate.NewState().Name("profile").Build())
	var conflict *domain.NamingConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "profile", conflict.Key)
	assert.ErrorIs(t, err, domain.ErrNamingConflict)
	assert.Equal(t, "fabstate: profile is already defined at form scope", err.Error())
}

func TestFacade_SendOrder(t *testing.T) {
	scope := fabstate.NewScope()
	l, err := fabstate.NewLoader(scope)
	require.NoError(t, err)

	output := func(v string) fabstate.Connect {
		return fabstate.Connect{
			Output: func(*fabstate.Context, fabstate.Tree, fabstate.Tree) fabstate.Tree {
				return fabstate.Tree{"owner": v}
			},
		}
	}
	require.NoError(t, l.Register(fabstate.NewState().Name("a").Connect(output("a")).Build()))
	require.NoError(t, l.Register(fabstate.NewState().Name("b").Connect(output("b")).Build()))

	require.NoError(t, l.Send())
	out, ok := scope.Get("outputParams")
	require.True(t, ok)
	assert.Equal(t, fabstate.Tree{"owner": "b"}, out)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, fabstate.Version)
}
