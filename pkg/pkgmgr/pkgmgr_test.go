// pkg/pkgmgr/pkgmgr_test.go

package pkgmgr

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/command"
)

type call struct {
	exe            string
	args           []string
	failureStrings []string
}

// scriptedExec returns results keyed by the first argument (the subcommand)
// and records every invocation.
type scriptedExec struct {
	results map[string]command.Result
	calls   []call
}

func (s *scriptedExec) exec(ctx context.Context, exe string, args, failureStrings []string, activity string, opts command.Options) command.Result {
	s.calls = append(s.calls, call{exe: exe, args: args, failureStrings: failureStrings})
	if len(args) > 0 {
		if res, ok := s.results[args[0]]; ok {
			return res
		}
	}
	return command.Result{Success: true}
}

func TestEntryFromTask(t *testing.T) {
	task := catalog.Task{
		InstallID:   "Git.Git",
		Description: "Git",
		Details:     json.RawMessage(`{"manager": "winget", "version": "2.46.0"}`),
	}
	entry, err := EntryFromTask(task)
	require.NoError(t, err)
	assert.Equal(t, "Git.Git", entry.InstallID)
	assert.Equal(t, "winget", entry.Manager)
	assert.Equal(t, "2.46.0", entry.Version)
	assert.Equal(t, "Git", entry.Label())
}

func TestEntryFromTaskDefaultsToWinget(t *testing.T) {
	entry, err := EntryFromTask(catalog.Task{InstallID: "X"})
	require.NoError(t, err)
	assert.Equal(t, "winget", entry.Manager)
}

func TestEntryFromTaskRejectsMissingInstallID(t *testing.T) {
	_, err := EntryFromTask(catalog.Task{ID: "not-a-package"})
	assert.Error(t, err)
}

func TestEntryFromTaskRejectsUnknownManager(t *testing.T) {
	_, err := EntryFromTask(catalog.Task{
		InstallID: "X",
		Details:   json.RawMessage(`{"manager": "apt"}`),
	})
	assert.Error(t, err)
}

func TestUpgradable(t *testing.T) {
	assert.True(t, upgradable("1.2.3", "1.3.0"))
	assert.False(t, upgradable("1.3.0", "1.3.0"))
	assert.False(t, upgradable("2.0.0", "1.9.9"))
	assert.False(t, upgradable("", "1.0.0"))
	// Unparseable versions fall back to inequality.
	assert.True(t, upgradable("2024-01", "2024-02"))
}

func TestWingetStatusNotInstalled(t *testing.T) {
	exec := &scriptedExec{results: map[string]command.Result{
		"list": {Success: false, Output: []string{
			"No installed package found matching input criteria.",
		}},
	}}
	c := NewWingetClient(exec.exec)

	state, err := c.GetInstalledStatus(context.Background(), Entry{InstallID: "Git.Git"})
	require.NoError(t, err)
	assert.Equal(t, StatusNotInstalled, state.Status)
}

func TestWingetStatusInstalledWithUpgrade(t *testing.T) {
	exec := &scriptedExec{results: map[string]command.Result{
		"list": {Success: true, Output: []string{
			"Name Id      Version Available Source",
			"---------------------------------------",
			"Git  Git.Git 2.45.0  2.46.0    winget",
		}},
	}}
	c := NewWingetClient(exec.exec)

	state, err := c.GetInstalledStatus(context.Background(), Entry{InstallID: "Git.Git"})
	require.NoError(t, err)
	assert.Equal(t, StatusInstalled, state.Status)
	assert.Equal(t, "2.45.0", state.Version)
	assert.Equal(t, "2.46.0", state.Available)
	assert.True(t, state.Upgradable)
}

func TestWingetStatusInstalledCurrent(t *testing.T) {
	exec := &scriptedExec{results: map[string]command.Result{
		"list": {Success: true, Output: []string{
			"Name Id      Version",
			"--------------------",
			"Git  Git.Git 2.46.0",
		}},
	}}
	c := NewWingetClient(exec.exec)

	state, err := c.GetInstalledStatus(context.Background(), Entry{InstallID: "Git.Git"})
	require.NoError(t, err)
	assert.Equal(t, StatusInstalled, state.Status)
	assert.Equal(t, "2.46.0", state.Version)
	assert.False(t, state.Upgradable)
}

func TestWingetInstallCarriesFailureStrings(t *testing.T) {
	exec := &scriptedExec{results: map[string]command.Result{}}
	c := NewWingetClient(exec.exec)

	require.NoError(t, c.Install(context.Background(), Entry{InstallID: "Git.Git", Version: "2.46.0"}))
	require.Len(t, exec.calls, 1)
	assert.Equal(t, "winget", exec.calls[0].exe)
	assert.Contains(t, exec.calls[0].args, "--version")
	assert.Contains(t, exec.calls[0].failureStrings, "No package found matching input criteria")
}

func TestWingetInstallSoftFailure(t *testing.T) {
	exec := &scriptedExec{results: map[string]command.Result{
		"install": {Success: false,
			Output: []string{"No package found matching input criteria"},
			Err: &command.FailureIndicatorError{
				Indicator: "No package found matching input criteria",
				Line:      "No package found matching input criteria",
			}},
	}}
	c := NewWingetClient(exec.exec)

	err := c.Install(context.Background(), Entry{InstallID: "Nope.Nope"})
	assert.ErrorContains(t, err, "No package found")
}

func TestChocoStatusParsesLimitOutput(t *testing.T) {
	exec := &scriptedExec{results: map[string]command.Result{
		"list":     {Success: true, Output: []string{"7zip|23.1.0"}},
		"outdated": {Success: true, Output: []string{"7zip|23.1.0|24.0.0|false"}},
	}}
	c := NewChocoClient(exec.exec)

	state, err := c.GetInstalledStatus(context.Background(), Entry{InstallID: "7zip", Manager: "choco"})
	require.NoError(t, err)
	assert.Equal(t, StatusInstalled, state.Status)
	assert.Equal(t, "23.1.0", state.Version)
	assert.Equal(t, "24.0.0", state.Available)
	assert.True(t, state.Upgradable)
}

func TestChocoStatusNotInstalled(t *testing.T) {
	exec := &scriptedExec{results: map[string]command.Result{
		"list": {Success: true, Output: []string{}},
	}}
	c := NewChocoClient(exec.exec)

	state, err := c.GetInstalledStatus(context.Background(), Entry{InstallID: "7zip", Manager: "choco"})
	require.NoError(t, err)
	assert.Equal(t, StatusNotInstalled, state.Status)
}

func TestChocoOutdatedFailureLeavesUpgradableFalse(t *testing.T) {
	exec := &scriptedExec{results: map[string]command.Result{
		"list":     {Success: true, Output: []string{"7zip|23.1.0"}},
		"outdated": {Success: false, Err: assert.AnError},
	}}
	c := NewChocoClient(exec.exec)

	state, err := c.GetInstalledStatus(context.Background(), Entry{InstallID: "7zip", Manager: "choco"})
	require.NoError(t, err)
	assert.False(t, state.Upgradable)
}

func TestManagersFor(t *testing.T) {
	exec := &scriptedExec{}
	managers := NewManagers(exec.exec)

	mgr, err := managers.For(Entry{Manager: "winget"})
	require.NoError(t, err)
	assert.Equal(t, "winget", mgr.Name())

	mgr, err = managers.For(Entry{Manager: "choco"})
	require.NoError(t, err)
	assert.Equal(t, "choco", mgr.Name())

	_, err = managers.For(Entry{Manager: "scoop"})
	assert.Error(t, err)
}
