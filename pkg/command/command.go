// pkg/command/command.go - native command execution with failure-string scanning.
//
// Several wrapped tools (notably the package managers) exit 0 even when the
// operation failed, so a single exit-code check is not enough. RunNative
// delegates execution to the supervisor and then scans the captured output
// for known failure indicators; either signal flips the verdict to failure.

package command

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/windowsadmins/winforge/pkg/logging"
	"github.com/windowsadmins/winforge/pkg/supervise"
)

// Runner abstracts the supervisor so callers and tests can substitute one.
type Runner interface {
	Run(ctx context.Context, spec supervise.Spec) supervise.Result
}

// SuperviseRunner executes commands through the real process supervisor.
type SuperviseRunner struct{}

func (SuperviseRunner) Run(ctx context.Context, spec supervise.Spec) supervise.Result {
	return supervise.Run(ctx, spec)
}

// Options tunes a single native command invocation.
type Options struct {
	OverallTimeout     time.Duration
	IdleTimeout        time.Duration
	DisableIdleTimeout bool
	ProgressPattern    *regexp.Regexp
	Notifier           supervise.Notifier
	Runner             Runner
}

// Result is the single success/failure verdict plus the full output for
// diagnostic logging by the caller.
type Result struct {
	Success bool
	Output  []string
	Err     error
}

// FailureIndicatorError reports that a configured failure substring was found
// in the command output even though the process may have exited cleanly.
type FailureIndicatorError struct {
	Indicator string
	Line      string
}

func (e *FailureIndicatorError) Error() string {
	return fmt.Sprintf("failure indicator %q found in output: %s", e.Indicator, e.Line)
}

// RunNative runs an executable under supervision and interprets the outcome.
// failureStrings are matched case-sensitively as substrings against every
// captured output line.
func RunNative(ctx context.Context, exe string, args, failureStrings []string, activity string, opts Options) Result {
	runner := opts.Runner
	if runner == nil {
		runner = SuperviseRunner{}
	}

	res := runner.Run(ctx, supervise.Spec{
		Command:            exe,
		Args:               args,
		Activity:           activity,
		OverallTimeout:     opts.OverallTimeout,
		IdleTimeout:        opts.IdleTimeout,
		DisableIdleTimeout: opts.DisableIdleTimeout,
		ProgressPattern:    opts.ProgressPattern,
		Notifier:           opts.Notifier,
	})

	out := Result{Success: res.Success, Output: res.Output, Err: res.Err}

	var exitErr *supervise.ExitError
	if errors.As(res.Err, &exitErr) {
		logging.Debug("Native command exited non-zero",
			"activity", activity, "command", exe, "exit_code", exitErr.Code)
		out.Success = false
	}

	// Regardless of the exit code, a failure indicator in the output wins.
	for _, line := range res.Output {
		for _, indicator := range failureStrings {
			if indicator != "" && strings.Contains(line, indicator) {
				logging.Warn("Failure indicator found in command output",
					"activity", activity, "command", exe, "indicator", indicator)
				out.Success = false
				if out.Err == nil {
					out.Err = &FailureIndicatorError{Indicator: indicator, Line: line}
				}
				return out
			}
		}
	}
	return out
}

// OutputText joins the captured output for verbatim diagnostic printing.
func (r Result) OutputText() string {
	return strings.Join(r.Output, "\n")
}
