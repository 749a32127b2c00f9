// pkg/supervise/supervise.go - supervised execution of external commands.
//
// Package managers, DISM and similar tools can run for a long time, stall
// without exiting, or report progress only through their output stream. The
// supervisor runs one command as a background child process while the caller's
// goroutine polls two independent clocks: the overall elapsed time and the
// idle time since the last output chunk. Either breach force-terminates the
// child. Progress percentages are parsed from output when a pattern is given.

package supervise

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/windowsadmins/winforge/pkg/logging"
)

// Default timeout policy for supervised commands. Deployment-specific values
// belong in the configuration; these are only the fallback.
const (
	DefaultOverallTimeout = time.Hour
	DefaultIdleTimeout    = 5 * time.Minute
)

// pollInterval is the granularity of the timeout checks.
const pollInterval = 250 * time.Millisecond

// ErrOverallTimeout reports that the command exceeded its total time budget.
var ErrOverallTimeout = errors.New("command exceeded overall timeout")

// ErrIdleTimeout reports that the command produced no new output for the
// configured idle window. This distinguishes "slow but working" from "hung".
var ErrIdleTimeout = errors.New("command produced no output before idle timeout")

// ExitError reports a non-zero exit code from the supervised command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// Notifier receives progress and status updates while a command runs. The
// supervisor's correctness does not depend on anyone consuming these
// notifications; they exist for the UI.
type Notifier interface {
	Progress(activity string, percent int)
	Status(activity, message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Progress(string, int)  {}
func (NopNotifier) Status(string, string) {}

// Spec describes one command to supervise.
type Spec struct {
	Command  string
	Args     []string
	Activity string

	// OverallTimeout bounds the total runtime. Zero means DefaultOverallTimeout.
	OverallTimeout time.Duration
	// IdleTimeout bounds the time between output chunks. Zero means
	// DefaultIdleTimeout. Ignored when DisableIdleTimeout is set.
	IdleTimeout        time.Duration
	DisableIdleTimeout bool

	// ProgressPattern extracts a percentage from output lines. The first
	// capture group is used when present, otherwise the whole match.
	ProgressPattern *regexp.Regexp

	Notifier Notifier
}

// Result is the outcome of a supervised run. Output holds every captured
// line in arrival order, regardless of how the run ended.
type Result struct {
	Success bool
	Output  []string
	Err     error
}

// Run starts the command and polls it until exit or a timeout breach. The
// child is always reaped before Run returns.
func Run(ctx context.Context, spec Spec) Result {
	overall := spec.OverallTimeout
	if overall <= 0 {
		overall = DefaultOverallTimeout
	}
	idle := spec.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	notify := spec.Notifier
	if notify == nil {
		notify = NopNotifier{}
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	hideWindow(cmd)

	lines := make(chan string, 64)
	var scanners sync.WaitGroup

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{Err: fmt.Errorf("attaching stdout: %w", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{Err: fmt.Errorf("attaching stderr: %w", err)}
	}
	for _, pipe := range []interface{ Read([]byte) (int, error) }{stdout, stderr} {
		scanners.Add(1)
		go func(r interface{ Read([]byte) (int, error) }) {
			defer scanners.Done()
			sc := bufio.NewScanner(r)
			sc.Buffer(make([]byte, 64*1024), 1024*1024)
			for sc.Scan() {
				lines <- sc.Text()
			}
		}(pipe)
	}

	if err := cmd.Start(); err != nil {
		return Result{Err: fmt.Errorf("starting %s: %w", spec.Command, err)}
	}
	logging.Debug("Supervised command started",
		"activity", spec.Activity, "command", spec.Command, "pid", cmd.Process.Pid)

	// The wait goroutine reaps the child after both pipes drain.
	waitErr := make(chan error, 1)
	go func() {
		scanners.Wait()
		close(lines)
		waitErr <- cmd.Wait()
	}()

	notify.Status(spec.Activity, "started")

	var output []string
	start := time.Now()
	lastOutput := start
	lastPercent := -1

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	consume := func(line string) {
		output = append(output, line)
		lastOutput = time.Now()
		if spec.ProgressPattern == nil {
			return
		}
		if pct, ok := parsePercent(spec.ProgressPattern, line); ok && pct != lastPercent {
			lastPercent = pct
			notify.Progress(spec.Activity, pct)
		}
	}

	abort := func(cause error) Result {
		_ = cmd.Process.Kill()
		// Drain remaining output first so the scanner goroutines can finish,
		// then reap the child.
		for line := range lines {
			output = append(output, line)
		}
		<-waitErr
		notify.Status(spec.Activity, "terminated: "+cause.Error())
		logging.Warn("Supervised command terminated",
			"activity", spec.Activity, "command", spec.Command, "error", cause)
		return Result{Success: false, Output: output, Err: cause}
	}

	for {
		select {
		case line, ok := <-lines:
			if ok {
				consume(line)
			}

		case err := <-waitErr:
			for line := range lines {
				consume(line)
			}
			return finish(spec, notify, output, err)

		case <-ticker.C:
			elapsed := time.Since(start)
			if elapsed > overall {
				return abort(fmt.Errorf("%w after %s", ErrOverallTimeout, elapsed.Round(time.Second)))
			}
			if !spec.DisableIdleTimeout {
				if quiet := time.Since(lastOutput); quiet > idle {
					return abort(fmt.Errorf("%w (silent for %s)", ErrIdleTimeout, quiet.Round(time.Second)))
				}
			}

		case <-ctx.Done():
			return abort(ctx.Err())
		}
	}
}

func finish(spec Spec, notify Notifier, output []string, err error) Result {
	if err == nil {
		notify.Status(spec.Activity, "completed")
		logging.Debug("Supervised command completed", "activity", spec.Activity, "command", spec.Command)
		return Result{Success: true, Output: output}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		notify.Status(spec.Activity, fmt.Sprintf("exited with code %d", code))
		logging.Debug("Supervised command failed",
			"activity", spec.Activity, "command", spec.Command, "exit_code", code)
		return Result{Success: false, Output: output, Err: &ExitError{Code: code}}
	}
	return Result{Success: false, Output: output, Err: err}
}

func parsePercent(pattern *regexp.Regexp, line string) (int, bool) {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	candidate := m[0]
	if len(m) > 1 && m[1] != "" {
		candidate = m[1]
	}
	pct, err := strconv.Atoi(candidate)
	if err != nil || pct < 0 || pct > 100 {
		return 0, false
	}
	return pct, true
}
