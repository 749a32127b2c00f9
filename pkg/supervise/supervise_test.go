// pkg/supervise/supervise_test.go

package supervise

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	percents []int
	statuses []string
}

func (n *recordingNotifier) Progress(activity string, percent int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.percents = append(n.percents, percent)
}

func (n *recordingNotifier) Status(activity, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, message)
}

func (n *recordingNotifier) snapshot() ([]int, []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.percents...), append([]string(nil), n.statuses...)
}

func TestRunCapturesOutputInOrder(t *testing.T) {
	cmd, args := echoCmd("first", "second")
	res := Run(context.Background(), Spec{Command: cmd, Args: args, Activity: "echo"})

	require.True(t, res.Success)
	require.NoError(t, res.Err)
	require.Len(t, res.Output, 2)
	assert.Contains(t, res.Output[0], "first")
	assert.Contains(t, res.Output[1], "second")
}

func TestRunReportsExitCode(t *testing.T) {
	cmd, args := exitCmd(3)
	res := Run(context.Background(), Spec{Command: cmd, Args: args, Activity: "exit"})

	require.False(t, res.Success)
	var exitErr *ExitError
	require.ErrorAs(t, res.Err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
}

func TestRunStartFailure(t *testing.T) {
	res := Run(context.Background(), Spec{Command: "definitely-not-a-real-binary"})

	assert.False(t, res.Success)
	assert.Error(t, res.Err)
}

func TestRunOverallTimeout(t *testing.T) {
	cmd, args := silentSleepCmd(10)
	start := time.Now()
	res := Run(context.Background(), Spec{
		Command:        cmd,
		Args:           args,
		Activity:       "sleep",
		OverallTimeout: 500 * time.Millisecond,
		IdleTimeout:    time.Minute, // keep the idle clock out of the way
	})

	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrOverallTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunIdleTimeout(t *testing.T) {
	cmd, args := silentSleepCmd(10)
	res := Run(context.Background(), Spec{
		Command:        cmd,
		Args:           args,
		Activity:       "sleep",
		OverallTimeout: time.Minute,
		IdleTimeout:    500 * time.Millisecond,
	})

	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrIdleTimeout)
	assert.NotErrorIs(t, res.Err, ErrOverallTimeout)
}

func TestRunDisableIdleTimeout(t *testing.T) {
	cmd, args := silentSleepCmd(1)
	res := Run(context.Background(), Spec{
		Command:            cmd,
		Args:               args,
		Activity:           "sleep",
		OverallTimeout:     time.Minute,
		IdleTimeout:        300 * time.Millisecond,
		DisableIdleTimeout: true,
	})

	assert.True(t, res.Success)
	assert.NoError(t, res.Err)
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	cmd, args := silentSleepCmd(10)
	res := Run(ctx, Spec{Command: cmd, Args: args, Activity: "sleep", DisableIdleTimeout: true})

	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestRunProgressNotifications(t *testing.T) {
	notifier := &recordingNotifier{}
	cmd, args := echoCmd("progress 10%", "progress 55%", "progress 55%", "progress 100%")
	res := Run(context.Background(), Spec{
		Command:         cmd,
		Args:            args,
		Activity:        "progress",
		ProgressPattern: regexp.MustCompile(`(\d+)%`),
		Notifier:        notifier,
	})

	require.True(t, res.Success)
	percents, statuses := notifier.snapshot()
	// Repeated percentages collapse into one notification.
	assert.Equal(t, []int{10, 55, 100}, percents)
	assert.Contains(t, statuses, "started")
	assert.Contains(t, statuses, "completed")
}

func TestParsePercent(t *testing.T) {
	grouped := regexp.MustCompile(`(\d+)(?:\.\d+)?%`)
	bare := regexp.MustCompile(`\d+`)

	cases := []struct {
		name    string
		pattern *regexp.Regexp
		line    string
		want    int
		ok      bool
	}{
		{"capture group", grouped, "[=== 42.5% ===]", 42, true},
		{"whole match", bare, "77", 77, true},
		{"no match", grouped, "working...", 0, false},
		{"over bounds", bare, "250", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parsePercent(tc.pattern, tc.line)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestRunLongLinesDoNotStall(t *testing.T) {
	long := make([]byte, 100*1024)
	for i := range long {
		long[i] = 'a'
	}
	cmd, args := echoCmd(string(long[:8000])) // shells cap argv, keep it modest
	res := Run(context.Background(), Spec{Command: cmd, Args: args, Activity: "long"})

	require.True(t, res.Success)
	require.NotEmpty(t, res.Output)
}
