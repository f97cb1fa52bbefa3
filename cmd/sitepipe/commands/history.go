package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	derrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/ledger"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"20"`
	RunID string `arg:"" optional:"" name:"run" help:"Show the state transitions of one run"`
	JSON  bool   `name:"json" help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if cfg.State.Database == "" {
		return derrors.ConfigError("state.database is not configured; no run history is kept").Build()
	}
	store, err := openLedger(cfg.State.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if h.RunID != "" {
		return h.showRun(ctx, os.Stdout, store)
	}
	runs, err := store.List(ctx, h.Limit)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to list runs").Build()
	}
	if h.JSON {
		return writeJSONOut(os.Stdout, runs)
	}
	printRuns(os.Stdout, runs)
	return nil
}

func (h *HistoryCmd) showRun(ctx context.Context, w io.Writer, store ledger.Store) error {
	run, err := store.Get(ctx, h.RunID)
	if err != nil {
		return err
	}
	ts, err := store.Transitions(ctx, h.RunID)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to load transitions").Build()
	}
	if h.JSON {
		return writeJSONOut(w, map[string]any{"run": run, "transitions": ts})
	}
	printRuns(w, []*ledger.Run{run})
	_, _ = fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "AT\tSTATE\tDETAIL")
	for _, t := range ts {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", t.At.Format(time.RFC3339), t.State, t.Detail)
	}
	return tw.Flush()
}

func printRuns(w io.Writer, runs []*ledger.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tTRIGGER\tSTATE\tDURATION\tITEMS\tINDEXED\tLOCATION")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Started.Format(time.RFC3339), r.Trigger, r.State,
			r.Duration().Round(time.Millisecond), r.Items, r.Indexed, r.Location)
	}
	_ = tw.Flush()
}

func writeJSONOut(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
