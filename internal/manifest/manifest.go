package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/fabstate/pkg/loader"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Manifest describes a whole form.
type Manifest struct {
	Name    string               `json:"name" mapstructure:"name"`
	Loader  loader.Config        `json:"loader" mapstructure:"loader"`
	Input   map[string]any       `json:"input" mapstructure:"input"`
	Context map[string]any       `json:"context" mapstructure:"context"`
	Mixins  map[string]MixinSpec `json:"mixins" mapstructure:"mixins"`
	States  []StateSpec          `json:"states" mapstructure:"states"`
	Steps   []Step               `json:"steps" mapstructure:"steps"`
}

// StateSpec describes one state.
type StateSpec struct {
	Name     string                `json:"name" mapstructure:"name"`
	Debug    bool                  `json:"debug" mapstructure:"debug"`
	State    map[string]any        `json:"state" mapstructure:"state"`
	Computed map[string]string     `json:"computed" mapstructure:"computed"`
	Actions  map[string]ActionSpec `json:"actions" mapstructure:"actions"`
	Mixins   []string              `json:"mixins" mapstructure:"mixins"`
	Connect  ConnectSpec           `json:"connect" mapstructure:"connect"`

	// Substates are nested states keyed by the path they occupy in the parent tree.
	Substates map[string]StateSpec `json:"substates" mapstructure:"substates"`

	// MapParams controls whether registration runs the input mapping. Defaults to true.
	MapParams *bool `json:"map_params" mapstructure:"map_params"`
}

// ActionSpec assigns expression results to state paths and optionally returns a value.
type ActionSpec struct {
	Set    map[string]string `json:"set" mapstructure:"set"`
	Return string            `json:"return" mapstructure:"return"`
}

// MixinSpec is a named group of actions shared between states.
type MixinSpec struct {
	Actions map[string]ActionSpec `json:"actions" mapstructure:"actions"`
}

// ConnectSpec maps input parameters into the state and the state into output parameters.
type ConnectSpec struct {
	Input  map[string]string `json:"input" mapstructure:"input"`
	Output map[string]string `json:"output" mapstructure:"output"`
}

// Step is one scripted interaction. Exactly one of its kinds is set.
type Step struct {
	Dispatch string    `json:"dispatch" mapstructure:"dispatch"`
	Value    any       `json:"value" mapstructure:"value"`
	Show     bool      `json:"show" mapstructure:"show"`
	Send     *SendStep `json:"send" mapstructure:"send"`
	Stop     string    `json:"stop" mapstructure:"stop"`
}

// SendStep submits the form. Save defaults to true.
type SendStep struct {
	Tag  string `json:"tag" mapstructure:"tag"`
	Save *bool  `json:"save" mapstructure:"save"`
}

// Step kinds.
const (
	StepDispatch = "dispatch"
	StepShow     = "show"
	StepSend     = "send"
	StepStop     = "stop"
)

// Kinds returns the kinds set on s.
func (s Step) Kinds() []string {
	var kinds []string
	if s.Dispatch != "" {
		kinds = append(kinds, StepDispatch)
	}
	if s.Show {
		kinds = append(kinds, StepShow)
	}
	if s.Send != nil {
		kinds = append(kinds, StepSend)
	}
	if s.Stop != "" {
		kinds = append(kinds, StepStop)
	}
	return kinds
}

// Kind returns the single kind of s, or "" when s sets none or several.
func (s Step) Kind() string {
	if kinds := s.Kinds(); len(kinds) == 1 {
		return kinds[0]
	}
	return ""
}

// Target splits a dispatch target "state.action".
func (s Step) Target() (name, action string, ok bool) {
	name, action, ok = strings.Cut(s.Dispatch, ".")
	if !ok || name == "" || action == "" {
		return "", "", false
	}
	return name, action, true
}

// IsSaved reports the save flag of a send step.
func (s SendStep) IsSaved() bool {
	return s.Save == nil || *s.Save
}

// Load reads a manifest file. Files ending in .json are parsed as JSON, anything else as YAML.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return Decode(raw)
	}
	return Parse(data)
}

// Parse decodes a YAML manifest.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return Decode(raw)
}

// Decode builds a manifest from a generic map. Unknown keys are rejected.
func Decode(raw map[string]any) (*Manifest, error) {
	var m Manifest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &m,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	m.Loader = m.Loader.WithDefaults()
	return &m, nil
}
