package decorators

import (
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/state"
)

// Substate nests d inside a parent state. On first read d is initialised with the parent's
// tree as host context and the parent's scope; every read returns d's tree.
func Substate(d *state.Descriptor) domain.Computed {
	initialised := false
	return func(ctx *domain.Context) any {
		if !initialised {
			initialised = true
			d.Init(ctx.State(), ctx.Scope(), nil)
		}
		return d.State()
	}
}
