// pkg/command/command_test.go

package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/winforge/pkg/supervise"
)

// fakeRunner returns a canned supervisor result and records the spec.
type fakeRunner struct {
	result supervise.Result
	spec   supervise.Spec
}

func (f *fakeRunner) Run(ctx context.Context, spec supervise.Spec) supervise.Result {
	f.spec = spec
	return f.result
}

func TestRunNativeCleanExit(t *testing.T) {
	runner := &fakeRunner{result: supervise.Result{
		Success: true,
		Output:  []string{"installing", "done"},
	}}

	res := RunNative(context.Background(), "tool.exe", []string{"-x"},
		[]string{"FAILED"}, "install", Options{Runner: runner})

	assert.True(t, res.Success)
	assert.NoError(t, res.Err)
	assert.Equal(t, "tool.exe", runner.spec.Command)
	assert.Equal(t, []string{"-x"}, runner.spec.Args)
}

func TestRunNativeNonZeroExit(t *testing.T) {
	runner := &fakeRunner{result: supervise.Result{
		Success: false,
		Output:  []string{"boom"},
		Err:     &supervise.ExitError{Code: 2},
	}}

	res := RunNative(context.Background(), "tool.exe", nil, nil, "run", Options{Runner: runner})

	require.False(t, res.Success)
	var exitErr *supervise.ExitError
	require.ErrorAs(t, res.Err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

// A tool can exit 0 and still have failed; the output scan must override the
// exit verdict.
func TestRunNativeFailureIndicatorOverridesExitCode(t *testing.T) {
	runner := &fakeRunner{result: supervise.Result{
		Success: true,
		Output:  []string{"resolving package", "No package found matching input criteria"},
	}}

	res := RunNative(context.Background(), "winget", nil,
		[]string{"No package found matching input criteria"}, "install", Options{Runner: runner})

	require.False(t, res.Success)
	var indErr *FailureIndicatorError
	require.ErrorAs(t, res.Err, &indErr)
	assert.Equal(t, "No package found matching input criteria", indErr.Indicator)
}

func TestRunNativeFailureIndicatorIsCaseSensitive(t *testing.T) {
	runner := &fakeRunner{result: supervise.Result{
		Success: true,
		Output:  []string{"failed to connect"},
	}}

	res := RunNative(context.Background(), "tool.exe", nil,
		[]string{"FAILED"}, "run", Options{Runner: runner})

	assert.True(t, res.Success)
}

func TestRunNativeIndicatorKeepsExistingError(t *testing.T) {
	runner := &fakeRunner{result: supervise.Result{
		Success: false,
		Output:  []string{"FAILED"},
		Err:     &supervise.ExitError{Code: 1},
	}}

	res := RunNative(context.Background(), "tool.exe", nil,
		[]string{"FAILED"}, "run", Options{Runner: runner})

	require.False(t, res.Success)
	// The exit error stays primary; the indicator only flips the verdict.
	var exitErr *supervise.ExitError
	assert.ErrorAs(t, res.Err, &exitErr)
}

func TestRunNativePassesTimeoutPolicy(t *testing.T) {
	runner := &fakeRunner{result: supervise.Result{Success: true}}

	RunNative(context.Background(), "tool.exe", nil, nil, "run", Options{
		Runner:             runner,
		DisableIdleTimeout: true,
	})

	assert.True(t, runner.spec.DisableIdleTimeout)
}

func TestOutputText(t *testing.T) {
	r := Result{Output: []string{"a", "b"}}
	assert.Equal(t, "a\nb", r.OutputText())
}
