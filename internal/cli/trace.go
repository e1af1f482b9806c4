package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Run string // optional - show decisions for a specific run
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <db>",
		Short: "Inspect recorded decision traces",
		Long: `Inspect a decision-trace database written by run --trace.

Without --run, lists recorded runs. With --run, prints the per-line
decision log for that run: which rule matched each line (by declared
index and description), the decision, and the output.

Examples:
  sift trace decisions.db
  sift trace decisions.db --run 7d4c2a9e-...
  sift trace decisions.db --run 7d4c2a9e-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Run, "run", "", "run ID to show decisions for")

	return cmd
}

func runTrace(opts *TraceOptions, dbPath string, cmd *cobra.Command) error {
	if _, err := os.Stat(dbPath); err != nil {
		return WrapExitError(ExitCommandError, "trace database not found", err)
	}

	st, err := trace.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open trace database", err)
	}
	defer st.Close()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Run == "" {
		return listRuns(ctx, st, formatter, cmd)
	}
	return showDecisions(ctx, st, opts.Run, formatter, cmd)
}

func listRuns(ctx context.Context, st *trace.Store, formatter *OutputFormatter, cmd *cobra.Command) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "list runs", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "no recorded runs")
		return nil
	}
	for _, r := range runs {
		state := "finished"
		if !r.Finished {
			state = "incomplete"
		}
		fmt.Fprintf(w, "%s  %s  %s  in=%d out=%d  %s\n",
			r.ID, r.StartedAt, r.Ruleset, r.LinesIn, r.LinesOut, state)
	}
	return nil
}

func showDecisions(ctx context.Context, st *trace.Store, runID string, formatter *OutputFormatter, cmd *cobra.Command) error {
	decisions, err := st.Decisions(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "read decisions", err)
	}
	if len(decisions) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no decisions recorded for run %s", runID))
	}

	if formatter.Format == "json" {
		return formatter.Success(decisions)
	}

	w := cmd.OutOrStdout()
	for _, d := range decisions {
		rule := "default"
		if d.RuleIndex >= 0 {
			rule = fmt.Sprintf("rule %d", d.RuleIndex)
			if d.RuleDescription != "" {
				rule += " (" + d.RuleDescription + ")"
			}
		}
		if d.Emitted {
			fmt.Fprintf(w, "line %d  %s  %s  %q -> %q\n", d.LineNo, rule, d.Decision, d.Input, d.Output)
		} else {
			fmt.Fprintf(w, "line %d  %s  %s  %q -> (dropped)\n", d.LineNo, rule, d.Decision, d.Input)
		}
	}
	return nil
}
