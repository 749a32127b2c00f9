// pkg/pkgmgr/choco.go - chocolatey client.

package pkgmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/windowsadmins/winforge/pkg/command"
)

// ChocoClient drives choco.exe using -r (limit output) for parseable
// pipe-delimited results.
type ChocoClient struct {
	exec ExecFunc
}

func NewChocoClient(exec ExecFunc) *ChocoClient {
	return &ChocoClient{exec: exec}
}

func (c *ChocoClient) Name() string { return "choco" }

var chocoInstallFailureStrings = []string{
	"0/1 packages installed.",
	"was NOT successful",
	"not found with the source(s) listed",
}

var chocoUninstallFailureStrings = []string{
	"0/1 packages uninstalled.",
	"was NOT successful",
}

func (c *ChocoClient) GetInstalledStatus(ctx context.Context, e Entry) (InstalledState, error) {
	res := c.exec(ctx, "choco",
		[]string{"list", "--exact", e.InstallID, "--limit-output"},
		nil, "Querying "+e.Label(), command.Options{})
	if !res.Success {
		return InstalledState{}, fmt.Errorf("choco list %s: %w", e.InstallID, res.Err)
	}

	installed := parseChocoRow(res.Output, e.InstallID)
	if installed == "" {
		return InstalledState{Status: StatusNotInstalled}, nil
	}

	state := InstalledState{Status: StatusInstalled, Version: installed}
	// choco list does not report upgrades; outdated does. Best effort: a
	// failing outdated query leaves Upgradable false rather than erroring
	// the whole status.
	out := c.exec(ctx, "choco", []string{"outdated", "--limit-output"},
		nil, "Checking upgrades for "+e.Label(), command.Options{})
	if out.Success {
		if available := parseChocoOutdatedRow(out.Output, e.InstallID); available != "" {
			state.Available = available
			state.Upgradable = upgradable(installed, available)
		}
	}
	return state, nil
}

// parseChocoRow reads "name|version" limit-output rows.
func parseChocoRow(output []string, id string) string {
	for _, line := range output {
		parts := strings.Split(strings.TrimSpace(line), "|")
		if len(parts) >= 2 && strings.EqualFold(parts[0], id) {
			return parts[1]
		}
	}
	return ""
}

// parseChocoOutdatedRow reads "name|current|available|pinned" rows.
func parseChocoOutdatedRow(output []string, id string) string {
	for _, line := range output {
		parts := strings.Split(strings.TrimSpace(line), "|")
		if len(parts) >= 3 && strings.EqualFold(parts[0], id) {
			return parts[2]
		}
	}
	return ""
}

func (c *ChocoClient) Install(ctx context.Context, e Entry) error {
	args := []string{"install", e.InstallID, "-y", "--no-progress"}
	if e.Version != "" {
		args = append(args, "--version", e.Version)
	}
	res := c.exec(ctx, "choco", args, chocoInstallFailureStrings,
		"Installing "+e.Label(), command.Options{})
	if !res.Success {
		return fmt.Errorf("choco install %s: %w\n%s", e.InstallID, res.Err, res.OutputText())
	}
	return nil
}

func (c *ChocoClient) Uninstall(ctx context.Context, e Entry) error {
	res := c.exec(ctx, "choco",
		[]string{"uninstall", e.InstallID, "-y"},
		chocoUninstallFailureStrings, "Uninstalling "+e.Label(), command.Options{})
	if !res.Success {
		return fmt.Errorf("choco uninstall %s: %w\n%s", e.InstallID, res.Err, res.OutputText())
	}
	return nil
}

func (c *ChocoClient) Upgrade(ctx context.Context, e Entry) error {
	res := c.exec(ctx, "choco",
		[]string{"upgrade", e.InstallID, "-y", "--no-progress"},
		[]string{"0/1 packages upgraded.", "was NOT successful"},
		"Upgrading "+e.Label(), command.Options{})
	if !res.Success {
		return fmt.Errorf("choco upgrade %s: %w\n%s", e.InstallID, res.Err, res.OutputText())
	}
	return nil
}
