package loader

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Default scope property names.
const (
	DefaultInputProp  = "inputParams"
	DefaultOutputProp = "outputParams"
	DefaultShowProp   = "onShow"
	DefaultSendProp   = "send"
)

// Config names the scope properties the loader reads and installs.
type Config struct {
	// InputProp is the container of input parameters handed to each state's input mapping.
	InputProp string `json:"inputProp" yaml:"inputProp" mapstructure:"inputProp"`
	// OutputProp is the container the output mappings are merged into.
	OutputProp string `json:"outputProp" yaml:"outputProp" mapstructure:"outputProp"`
	// ShowProp is the name of the show trigger installed on the scope.
	ShowProp string `json:"showProp" yaml:"showProp" mapstructure:"showProp"`
	// SendProp is the name of the send trigger installed on the scope.
	SendProp string `json:"sendProp" yaml:"sendProp" mapstructure:"sendProp"`
}

// DefaultConfig returns the default property names.
func DefaultConfig() Config {
	return Config{
		InputProp:  DefaultInputProp,
		OutputProp: DefaultOutputProp,
		ShowProp:   DefaultShowProp,
		SendProp:   DefaultSendProp,
	}
}

// WithDefaults returns c with empty fields set to the default names.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.InputProp == "" {
		c.InputProp = def.InputProp
	}
	if c.OutputProp == "" {
		c.OutputProp = def.OutputProp
	}
	if c.ShowProp == "" {
		c.ShowProp = def.ShowProp
	}
	if c.SendProp == "" {
		c.SendProp = def.SendProp
	}
	return c
}

// DecodeConfig reads a Config from a generic map, for instance a parsed YAML section.
// Unknown keys are rejected.
func DecodeConfig(raw map[string]any) (Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid loader config: %w", err)
	}
	return cfg.WithDefaults(), nil
}
