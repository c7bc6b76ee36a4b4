package manifest

import (
	"fmt"
	"sort"

	"github.com/aretw0/fabstate/pkg/decorators"
	"github.com/aretw0/fabstate/pkg/domain"
)

// Validate checks names, references, expressions and steps, reporting every problem at once.
func Validate(m *Manifest) error {
	v := &validation{m: m}
	v.run()
	if len(v.problems) > 0 {
		return &ValidationError{Problems: v.problems}
	}
	return nil
}

type validation struct {
	m        *Manifest
	problems []string
}

func (v *validation) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validation) run() {
	cfg := v.m.Loader.WithDefaults()
	reserved := map[string]string{
		domain.HostContextKey: "host context",
		cfg.InputProp:         "input parameters",
		cfg.OutputProp:        "output parameters",
		cfg.ShowProp:          "show trigger",
		cfg.SendProp:          "send trigger",
	}

	for _, name := range sortedKeys(v.m.Mixins) {
		v.actions(fmt.Sprintf("mixin %s", name), v.m.Mixins[name].Actions)
	}

	if len(v.m.States) == 0 {
		v.addf("manifest declares no states")
	}
	known := make(map[string]bool, len(v.m.States))
	for i, s := range v.m.States {
		label := fmt.Sprintf("state #%d", i)
		if s.Name == "" {
			v.addf("%s: missing name", label)
		} else {
			label = fmt.Sprintf("state %s", s.Name)
			if known[s.Name] {
				v.addf("%s: duplicate name", label)
			}
			if what, ok := reserved[s.Name]; ok {
				v.addf("%s: name is reserved for the %s", label, what)
			}
			known[s.Name] = true
		}
		v.state(label, s)
	}

	for i, step := range v.m.Steps {
		v.step(i, step, known)
	}
}

func (v *validation) state(label string, s StateSpec) {
	for _, path := range sortedKeys(s.Computed) {
		v.expression(fmt.Sprintf("%s: computed %s", label, path), s.Computed[path])
	}
	v.actions(label, s.Actions)
	for _, mixin := range s.Mixins {
		if _, ok := v.m.Mixins[mixin]; !ok {
			v.addf("%s: unknown mixin %q", label, mixin)
		}
	}
	for _, key := range sortedKeys(s.Connect.Input) {
		v.expression(fmt.Sprintf("%s: input %s", label, key), s.Connect.Input[key])
	}
	for _, key := range sortedKeys(s.Connect.Output) {
		v.expression(fmt.Sprintf("%s: output %s", label, key), s.Connect.Output[key])
	}
	for _, path := range sortedKeys(s.Substates) {
		v.state(fmt.Sprintf("%s: substate %s", label, path), s.Substates[path])
	}
}

func (v *validation) actions(label string, actions map[string]ActionSpec) {
	for _, name := range sortedKeys(actions) {
		a := actions[name]
		if len(a.Set) == 0 && a.Return == "" {
			v.addf("%s: action %s does nothing", label, name)
		}
		for _, path := range sortedKeys(a.Set) {
			v.expression(fmt.Sprintf("%s: action %s: set %s", label, name, path), a.Set[path])
		}
		if a.Return != "" {
			v.expression(fmt.Sprintf("%s: action %s: return", label, name), a.Return)
		}
	}
}

func (v *validation) expression(label, source string) {
	if _, err := decorators.Compile(source); err != nil {
		v.addf("%s: %v", label, err)
	}
}

func (v *validation) step(i int, step Step, known map[string]bool) {
	kinds := step.Kinds()
	switch len(kinds) {
	case 0:
		v.addf("step %d: no action", i)
		return
	case 1:
	default:
		v.addf("step %d: several actions %v", i, kinds)
		return
	}

	switch kinds[0] {
	case StepDispatch:
		name, _, ok := step.Target()
		if !ok {
			v.addf("step %d: dispatch target %q must be state.action", i, step.Dispatch)
		} else if !known[name] {
			v.addf("step %d: unknown state %q", i, name)
		}
	case StepStop:
		if !known[step.Stop] {
			v.addf("step %d: unknown state %q", i, step.Stop)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
