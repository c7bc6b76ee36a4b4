package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/fabstate/internal/resolver"
)

// StepResult records the outcome of one scripted step.
type StepResult struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Target string `json:"target,omitempty"`
	Result any    `json:"result,omitempty"`
}

// Report is what a replayed script leaves behind.
type Report struct {
	Name   string                    `json:"name,omitempty"`
	Steps  []StepResult              `json:"steps"`
	States map[string]map[string]any `json:"states"`
	Output map[string]any            `json:"output"`
}

// Run replays the manifest steps in order and stops at the first failure.
// The report is returned even on failure and covers the steps that completed.
func (f *Form) Run(ctx context.Context) (*Report, error) {
	report := &Report{Name: f.Manifest.Name, Steps: []StepResult{}}

	var runErr error
	for i, step := range f.Manifest.Steps {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		res, err := f.Step(step)
		if err != nil {
			runErr = &StepError{Index: i, Kind: step.Kind(), Err: err}
			break
		}
		res.Index = i
		report.Steps = append(report.Steps, res)
	}

	report.States = f.Snapshots()
	report.Output = f.Output()
	return report, runErr
}

// Step executes a single step against the form.
func (f *Form) Step(step Step) (StepResult, error) {
	res := StepResult{Kind: step.Kind()}
	err := guard(func() error {
		switch res.Kind {
		case StepDispatch:
			name, action, ok := step.Target()
			if !ok {
				return fmt.Errorf("invalid dispatch target %q", step.Dispatch)
			}
			d, ok := f.Loader.Get(name)
			if !ok {
				return fmt.Errorf("state %q is not registered", name)
			}
			res.Target = step.Dispatch
			res.Result = resolver.Materialize(d.Dispatch(action, step.Value))
		case StepShow:
			f.Loader.Show()
		case StepSend:
			res.Target = step.Send.Tag
			return f.Loader.Send(step.Send.Tag, step.Send.IsSaved())
		case StepStop:
			res.Target = step.Stop
			f.Loader.Stop(step.Stop)
		default:
			return errors.New("step must set exactly one of dispatch, show, send or stop")
		}
		return nil
	})
	return res, err
}

// guard runs fn and turns an ActionError panic into an error. Other panics propagate.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ae, ok := r.(*ActionError)
			if !ok {
				panic(r)
			}
			err = ae
		}
	}()
	return fn()
}
