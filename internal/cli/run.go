package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/fabstate/internal/manifest"
)

// Run builds the manifest, replays its steps and writes the JSON report to out.
// The report is written even when a step fails.
func Run(ctx context.Context, opts Options, out io.Writer) error {
	logger := createLogger(opts)

	m, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		return err
	}

	submitter, closeSubmitter, err := createSubmitter(opts)
	if err != nil {
		return err
	}
	defer closeSubmitter()

	buildOpts := []manifest.Option{
		manifest.WithLogger(logger),
		manifest.WithSubmitter(submitter),
		manifest.WithDebug(opts.Debug),
	}
	if opts.Debug {
		buildOpts = append(buildOpts, manifest.WithLifecycleHooks(createDebugHooks(logger)))
	}

	form, err := manifest.Build(m, buildOpts...)
	if err != nil {
		return fmt.Errorf("error building form: %w", err)
	}

	report, runErr := form.Run(ctx)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return runErr
}

// Validate loads and validates the manifest.
func Validate(path string) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	return manifest.Validate(m)
}
