package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
)

// RunCmd implements the 'run' command: one build followed by one publish.
type RunCmd struct {
	Output string `short:"o" help:"Override the output directory"`
}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, appOptions{publish: true, output: r.Output})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := a.runner.Run(ctx, pipeline.Trigger{Source: pipeline.TriggerCLI})
	if err != nil {
		return err
	}
	printResult(os.Stdout, res)
	return nil
}

func printResult(w io.Writer, res *pipeline.RunResult) {
	_, _ = fmt.Fprintf(w, "run %s: %s in %s\n", res.ID, res.State, res.Duration().Round(time.Millisecond))
	if art := res.Artifact; art != nil {
		_, _ = fmt.Fprintf(w, "  built %d items (%d skipped, %d indexed, %d assets) into %s\n",
			art.Items, art.Skipped, art.Indexed, art.Assets, art.Dir)
		if art.Report != nil && len(art.Report.Issues) > 0 {
			_, _ = fmt.Fprintf(w, "  %d content issue(s):\n", len(art.Report.Issues))
			for _, is := range art.Report.Issues {
				_, _ = fmt.Fprintf(w, "    %s %s: %s\n", is.Code, is.Path, is.Message)
			}
		}
	}
	if pub := res.Publish; pub != nil {
		_, _ = fmt.Fprintf(w, "  published to %s (%s) revision %s\n", pub.Target, pub.Location, pub.Revision)
	}
}
