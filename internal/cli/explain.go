package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/engine"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	Line string
}

// ExplainResult describes how one line was evaluated.
type ExplainResult struct {
	Input           string `json:"input"`
	Replaced        string `json:"replaced"`
	Decision        string `json:"decision"`
	RuleIndex       int    `json:"rule_index"`
	RuleDescription string `json:"rule_description,omitempty"`
	Emitted         bool   `json:"emitted"`
	Output          string `json:"output,omitempty"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <rules.yaml>",
		Short: "Show how one line would be evaluated",
		Long: `Evaluate a single line and report the decision.

Shows the line after global replacements, which rule matched (by
declared index and description), the resolved decision, and the output
line, if any.

Examples:
  sift explain rules.yaml --line "[DEBUG] noisy"
  sift explain rules.yaml --line "id=42" --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Line, "line", "", "the input line to evaluate (required)")
	_ = cmd.MarkFlagRequired("line")

	return cmd
}

// captureObserver keeps the last observed decision.
type captureObserver struct {
	last *engine.LineDecision
}

func (c *captureObserver) Decision(d engine.LineDecision) {
	c.last = &d
}

func runExplain(opts *ExplainOptions, rulesPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	rs, err := loadRuleSet(rulesPath)
	if err != nil {
		return err
	}

	capture := &captureObserver{}
	pipeline, err := engine.NewPipeline(rs, engine.WithObserver(capture))
	if err != nil {
		return WrapExitError(ExitFailure, "prepare pipeline", err)
	}

	out, emitted, err := pipeline.ProcessLine(opts.Line)
	if err != nil {
		return WrapExitError(ExitFailure, "evaluation failed", err)
	}
	if capture.last == nil {
		return NewExitError(ExitFailure, "no decision observed")
	}
	d := capture.last

	result := ExplainResult{
		Input:           opts.Line,
		Replaced:        d.Input,
		Decision:        string(d.Kind),
		RuleIndex:       d.RuleIndex,
		RuleDescription: d.RuleDescription,
		Emitted:         emitted,
		Output:          out,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "input:    %s\n", result.Input)
	if result.Replaced != result.Input {
		fmt.Fprintf(w, "replaced: %s\n", result.Replaced)
	}
	if result.RuleIndex >= 0 {
		desc := result.RuleDescription
		if desc == "" {
			desc = "unnamed"
		}
		fmt.Fprintf(w, "matched:  rule %d (%s)\n", result.RuleIndex, desc)
	} else {
		fmt.Fprintf(w, "matched:  no rule (unmatched disposition: %s)\n", rs.Unmatched)
	}
	fmt.Fprintf(w, "decision: %s\n", result.Decision)
	if emitted {
		fmt.Fprintf(w, "output:   %s\n", result.Output)
	} else {
		fmt.Fprintln(w, "output:   (dropped)")
	}

	return nil
}
