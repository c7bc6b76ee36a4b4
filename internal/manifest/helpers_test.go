package manifest

import (
	"context"

	"github.com/aretw0/fabstate/pkg/ports"
)

type failing struct{ err error }

func (f failing) Submit(context.Context, ports.Submission) error { return f.err }
