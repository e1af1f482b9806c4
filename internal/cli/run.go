package cli

import (
	"bufio"
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/engine"
	"github.com/roach88/sift/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Output   string
	Trace    string
	Encoding string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <rules.yaml> [input]",
		Short: "Process a stream of lines through a rule set",
		Long: `Process lines through a rule set.

Reads lines from the input file (or stdin), evaluates each against the
rule set's rules in declaration order, and writes 0 or 1 output lines
per input line. Output order equals input order.

A render or match failure on any line is terminal for the whole run;
nothing already emitted is retracted.

Examples:
  sift run rules.yaml access.log
  tail -f app.log | sift run rules.yaml
  sift run rules.yaml app.log -o clean.log --trace decisions.db
  sift run rules.yaml legacy.log --encoding latin1`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 1 {
				input = args[1]
			}
			return runPipeline(opts, args[0], input, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", "output file path, or - for stdout")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "record per-line decisions to this SQLite database")
	cmd.Flags().StringVar(&opts.Encoding, "encoding", "", "IANA charset of the input (output is re-encoded symmetrically)")

	return cmd
}

func runPipeline(opts *RunOptions, rulesPath, inputPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	rs, err := loadRuleSet(rulesPath)
	if err != nil {
		return err
	}
	slog.Debug("ruleset loaded", "path", rulesPath, "rules", len(rs.Rules))

	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Optional decision trace. Recording is an observer over the
	// pipeline; the engine itself stays stateless across lines.
	var pipelineOpts []engine.Option
	var recorder *trace.Recorder
	var run *trace.Run
	if opts.Trace != "" {
		st, err := trace.Open(opts.Trace)
		if err != nil {
			return WrapExitError(ExitCommandError, "open trace database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing trace database", "error", closeErr)
			}
		}()

		run, err = st.BeginRun(ctx, rulesPath, rs.Description)
		if err != nil {
			return WrapExitError(ExitCommandError, "begin trace run", err)
		}
		slog.Info("recording decisions", "db", opts.Trace, "run", run.ID)

		recorder = trace.NewRecorder(ctx, run)
		pipelineOpts = append(pipelineOpts, engine.WithObserver(recorder))
	}

	pipeline, err := engine.NewPipeline(rs, pipelineOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "prepare pipeline", err)
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := openOutput(opts.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	encoded := encodeWriter(out, enc)
	defer encoded.Close()
	w := bufio.NewWriter(encoded)

	var emitted int64

	// Header fires on process start, before the first line, even if
	// that line is ultimately dropped.
	if header, ok, err := pipeline.Header(); err != nil {
		return WrapExitError(ExitFailure, "render header", err)
	} else if ok {
		if _, err := w.WriteString(header + "\n"); err != nil {
			return WrapExitError(ExitCommandError, "write output", err)
		}
	}

	scanner := bufio.NewScanner(decodeReader(in, enc))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line, ok, err := pipeline.ProcessLine(scanner.Text())
		if err != nil {
			// No per-line recovery: a corrupt template typically fails
			// every subsequent line identically. Flush what was
			// already emitted; nothing is retracted.
			_ = w.Flush()
			return WrapExitError(ExitFailure, "processing failed", err)
		}
		if !ok {
			continue
		}

		emitted++
		if _, err := w.WriteString(line + "\n"); err != nil {
			return WrapExitError(ExitCommandError, "write output", err)
		}
	}
	if err := scanner.Err(); err != nil {
		_ = w.Flush()
		return WrapExitError(ExitCommandError, "read input", err)
	}

	if footer, ok, err := pipeline.Footer(); err != nil {
		_ = w.Flush()
		return WrapExitError(ExitFailure, "render footer", err)
	} else if ok {
		if _, err := w.WriteString(footer + "\n"); err != nil {
			return WrapExitError(ExitCommandError, "write output", err)
		}
	}

	if err := w.Flush(); err != nil {
		return WrapExitError(ExitCommandError, "flush output", err)
	}

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return WrapExitError(ExitCommandError, "record decisions", err)
		}
		if err := run.Finish(ctx, pipeline.LinesRead(), emitted); err != nil {
			return WrapExitError(ExitCommandError, "finish trace run", err)
		}
	}

	slog.Debug("run complete", "lines_in", pipeline.LinesRead(), "lines_out", emitted)
	return nil
}

// maxLineBytes bounds a single input line. Lines longer than this are
// an input error, not something to evaluate partially.
const maxLineBytes = 10 * 1024 * 1024
