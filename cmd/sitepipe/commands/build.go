package commands

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
)

// BuildCmd implements the 'build' command: build only, for previews.
type BuildCmd struct {
	Output string `short:"o" help:"Override the output directory"`
	Report string `help:"Write the build report as JSON to this file"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, appOptions{output: b.Output})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := a.runner.Run(ctx, pipeline.Trigger{Source: pipeline.TriggerCLI, Detail: "build"})
	if err != nil {
		return err
	}
	printResult(os.Stdout, res)

	if b.Report != "" && res.Artifact != nil && res.Artifact.Report != nil {
		data, err := json.MarshalIndent(res.Artifact.Report, "", "  ")
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryInternal, "failed to encode build report").Build()
		}
		if err := os.WriteFile(b.Report, append(data, '\n'), 0o600); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write build report").
				WithContext("path", b.Report).Build()
		}
	}
	return nil
}
