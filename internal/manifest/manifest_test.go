package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/fabstate/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YAML(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "signup.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "signup", m.Name)
	assert.Equal(t, "inputParams", m.Loader.InputProp)
	require.Len(t, m.States, 2)
	assert.Equal(t, "profile", m.States[0].Name)
	assert.Equal(t, []string{"touch"}, m.States[0].Mixins)
	assert.Contains(t, m.States[0].Substates, "address")
	require.Len(t, m.Steps, 6)
	assert.Equal(t, StepDispatch, m.Steps[0].Kind())
	assert.Equal(t, StepShow, m.Steps[4].Kind())
	assert.Equal(t, StepSend, m.Steps[5].Kind())
	assert.True(t, m.Steps[5].Send.IsSaved())
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.json")
	data := `{"loader": {"outputProp": "result"}, "states": [{"name": "a", "state": {"n": 1}}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "result", m.Loader.OutputProp)
	assert.Equal(t, "send", m.Loader.SendProp)
	assert.Equal(t, float64(1), m.States[0].State["n"])
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("states:\n  - name: a\n    colour: red\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestStep_Target(t *testing.T) {
	tests := []struct {
		dispatch string
		name     string
		action   string
		ok       bool
	}{
		{"profile.rename", "profile", "rename", true},
		{"profile.", "", "", false},
		{".rename", "", "", false},
		{"profile", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.dispatch, func(t *testing.T) {
			name, action, ok := Step{Dispatch: tt.dispatch}.Target()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.action, action)
		})
	}
}

func TestValidate(t *testing.T) {
	m, err := Parse([]byte(`
mixins:
  broken:
    actions:
      noop: {}
states:
  - name: a
    computed:
      bad: "state.("
    mixins: [missing]
  - name: a
  - name: send
  - state: {}
steps:
  - {}
  - dispatch: ghost.go
  - dispatch: a
  - show: true
    stop: a
  - stop: ghost
`))
	require.NoError(t, err)

	err = Validate(m)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	msg := err.Error()
	assert.Contains(t, msg, "mixin broken: action noop does nothing")
	assert.Contains(t, msg, "state a: computed bad")
	assert.Contains(t, msg, `state a: unknown mixin "missing"`)
	assert.Contains(t, msg, "state a: duplicate name")
	assert.Contains(t, msg, "state send: name is reserved for the send trigger")
	assert.Contains(t, msg, "state #3: missing name")
	assert.Contains(t, msg, "step 0: no action")
	assert.Contains(t, msg, `step 1: unknown state "ghost"`)
	assert.Contains(t, msg, "step 2: dispatch target")
	assert.Contains(t, msg, "step 3: several actions")
	assert.Contains(t, msg, `step 4: unknown state "ghost"`)
	assert.Len(t, verr.Problems, 11)
}

func TestValidate_NoStates(t *testing.T) {
	err := Validate(&Manifest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest declares no states")
}

func TestRun_Signup(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "signup.yaml"))
	require.NoError(t, err)

	rec := memory.NewRecorder()
	form, err := Build(m, WithSubmitter(rec))
	require.NoError(t, err)
	assert.Equal(t, []string{"profile", "counter"}, form.Loader.States())

	report, err := form.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Steps, 6)
	assert.Equal(t, "Grace Lovelace", report.Steps[0].Result)
	assert.Equal(t, 2, report.Steps[1].Result)
	assert.Equal(t, 5, report.Steps[2].Result)
	assert.Equal(t, "final", report.Steps[5].Target)

	profile := report.States["profile"]
	assert.Equal(t, "Grace", profile["first"])
	assert.Equal(t, "Grace Lovelace", profile["full"])
	assert.Equal(t, "ada@example.com", profile["email"])
	assert.Equal(t, true, profile["touched"])
	assert.Equal(t, map[string]any{"city": "London"}, profile["address"])

	expected := map[string]any{
		"name":    "Grace Lovelace",
		"contact": map[string]any{"email": "ada@example.com"},
		"locale":  "en",
		"count":   5,
	}
	assert.Equal(t, expected, report.Output)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "final", last.Tag)
	assert.Equal(t, expected, last.Output)

	t.Run("Manifest is not mutated", func(t *testing.T) {
		assert.Equal(t, "Ada", m.States[0].State["first"])
		assert.Equal(t, 0, m.States[1].State["count"])
	})
}

func TestBuild_MapParamsOff(t *testing.T) {
	m, err := Parse([]byte(`
input:
  email: ada@example.com
states:
  - name: profile
    map_params: false
    state:
      email: none
    connect:
      input:
        email: params.email
`))
	require.NoError(t, err)

	form, err := Build(m)
	require.NoError(t, err)
	assert.Equal(t, "none", form.Snapshots()["profile"]["email"])
}

func TestBuild_InvalidManifest(t *testing.T) {
	_, err := Build(&Manifest{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRun_ActionError(t *testing.T) {
	m, err := Parse([]byte(`
states:
  - name: list
    state:
      picked: null
    actions:
      pick:
        set:
          picked: "[1, 2][value]"
steps:
  - dispatch: list.pick
    value: 5
  - send:
      tag: never
`))
	require.NoError(t, err)

	rec := memory.NewRecorder()
	form, err := Build(m, WithSubmitter(rec))
	require.NoError(t, err)

	report, err := form.Run(context.Background())
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 0, stepErr.Index)
	assert.Equal(t, StepDispatch, stepErr.Kind)

	var actionErr *ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, "list", actionErr.State)
	assert.Equal(t, "pick", actionErr.Action)

	assert.Empty(t, report.Steps)
	assert.Nil(t, report.States["list"]["picked"])
	assert.Empty(t, rec.Submissions())
}

func TestRun_SendWithoutSave(t *testing.T) {
	m, err := Parse([]byte(`
states:
  - name: a
    state:
      n: 1
    connect:
      output:
        n: state.n
steps:
  - send:
      tag: draft
      save: false
`))
	require.NoError(t, err)

	rec := memory.NewRecorder()
	form, err := Build(m, WithSubmitter(rec))
	require.NoError(t, err)

	report, err := form.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Output)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "draft", last.Tag)
	assert.Empty(t, last.Output)
}

func TestRun_Stop(t *testing.T) {
	m, err := Parse([]byte(`
states:
  - name: a
    state: {n: 1}
  - name: b
    state: {n: 2}
steps:
  - stop: a
`))
	require.NoError(t, err)

	form, err := Build(m)
	require.NoError(t, err)

	report, err := form.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, form.Loader.States())
	assert.NotContains(t, report.States, "a")
	_, bound := form.Scope.Get("a")
	assert.False(t, bound)
}

func TestRun_Cancelled(t *testing.T) {
	m, err := Parse([]byte(`
states:
  - name: a
steps:
  - show: true
`))
	require.NoError(t, err)

	form, err := Build(m)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = form.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStep_SubmitterError(t *testing.T) {
	m, err := Parse([]byte("states:\n  - name: a\n"))
	require.NoError(t, err)

	boom := errors.New("offline")
	form, err := Build(m, WithSubmitter(failing{boom}))
	require.NoError(t, err)

	_, err = form.Step(Step{Send: &SendStep{Tag: "x"}})
	assert.ErrorIs(t, err, boom)
}
