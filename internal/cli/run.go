package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// RunOptions configures the run command.
type RunOptions struct {
	Options
	Trace bool
	JSON  bool
	Quiet bool
}

// ErrRunFailed is returned when the root finished with Failure.
var ErrRunFailed = errors.New("run failed")

// Run compiles the project, runs it once and reports the result on out.
func Run(opts RunOptions, out, logOut io.Writer) error {
	var extra []arbor.Option
	var console *tui.Console
	if opts.Trace && !opts.JSON {
		if !opts.Quiet {
			tui.PrintBanner(out)
		}
		console = tui.NewConsole(out, nil)
		extra = append(extra, arbor.WithTracer(console))
	}

	s, err := NewSetup(opts.Options, logOut, extra...)
	if err != nil {
		return err
	}
	defer s.Close()
	if console != nil {
		console.SetGraph(s.Engine.Graph())
	}

	ctx := NewSignalContext(context.Background())
	defer ctx.Cancel()

	res, runErr := s.Engine.Run(ctx, ports.RunRequest{Trace: opts.JSON && opts.Trace})
	if sig := ctx.Signal(); sig != nil && !opts.Quiet {
		printSystemMessage(out, "Interrupted by %s.", sig)
	}

	if opts.JSON {
		if res != nil {
			if err := writeJSON(out, res); err != nil {
				return err
			}
		}
		return outcomeError(res, runErr)
	}

	if res != nil && !opts.Quiet {
		printResult(out, res)
	}
	return outcomeError(res, runErr)
}

func outcomeError(res *ports.RunResult, runErr error) error {
	if runErr != nil {
		return runErr
	}
	if res.Outcome.Status == domain.StatusFailure {
		return fmt.Errorf("%w: %s", ErrRunFailed, res.Outcome.Reason)
	}
	return nil
}

func printResult(out io.Writer, res *ports.RunResult) {
	printSystemMessage(out, "Finished with %s after %d tick(s).", res.Outcome, res.Ticks)
	keys := make([]string, 0, len(res.Blackboard))
	for k := range res.Blackboard {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "    %s = %s\n", k, domain.FormatValue(res.Blackboard[k]))
	}
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(out io.Writer, format string, args ...any) {
	fmt.Fprintf(out, ">>> %s\n", fmt.Sprintf(format, args...))
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
