// pkg/pkgmgr/winget.go - winget client.

package pkgmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/windowsadmins/winforge/pkg/command"
)

// WingetClient drives winget.exe. Winget exits 0 for several soft failures,
// so each mutating call carries a failure-substring set.
type WingetClient struct {
	exec ExecFunc
}

func NewWingetClient(exec ExecFunc) *WingetClient {
	return &WingetClient{exec: exec}
}

func (c *WingetClient) Name() string { return "winget" }

// notInstalledIndicator is printed by winget list when nothing matches; the
// exit code alone does not distinguish it on all builds.
const notInstalledIndicator = "No installed package found matching input criteria"

var wingetInstallFailureStrings = []string{
	"No package found matching input criteria",
	"Installer failed",
	"Installer hash does not match",
}

var wingetUninstallFailureStrings = []string{
	"No installed package found matching input criteria",
	"Uninstall failed",
}

func (c *WingetClient) GetInstalledStatus(ctx context.Context, e Entry) (InstalledState, error) {
	res := c.exec(ctx, "winget",
		[]string{"list", "--id", e.InstallID, "--exact", "--accept-source-agreements", "--disable-interactivity"},
		nil, "Querying "+e.Label(), command.Options{})
	if outputLinesContain(res.Output, notInstalledIndicator) {
		return InstalledState{Status: StatusNotInstalled}, nil
	}
	if !res.Success {
		return InstalledState{}, fmt.Errorf("winget list %s: %w", e.InstallID, res.Err)
	}

	installed, available := parseWingetListRow(res.Output, e.InstallID)
	if installed == "" {
		// Matched nothing we can read back; trust the exit code.
		return InstalledState{Status: StatusInstalled}, nil
	}
	return InstalledState{
		Status:     StatusInstalled,
		Version:    installed,
		Available:  available,
		Upgradable: available != "" && upgradable(installed, available),
	}, nil
}

// parseWingetListRow pulls version and available-version from the table row
// holding the package id. Columns are Name, Id, Version, [Available, Source];
// names can contain spaces, so fields are anchored at the id.
func parseWingetListRow(output []string, id string) (installed, available string) {
	for _, line := range output {
		fields := strings.Fields(line)
		for i, f := range fields {
			if !strings.EqualFold(f, id) {
				continue
			}
			rest := fields[i+1:]
			if len(rest) >= 1 {
				installed = rest[0]
			}
			// A trailing "winget" source column follows Available when
			// an upgrade exists.
			if len(rest) >= 3 {
				available = rest[1]
			}
			return installed, available
		}
	}
	return "", ""
}

func (c *WingetClient) Install(ctx context.Context, e Entry) error {
	args := []string{"install", "--id", e.InstallID, "--exact", "--silent",
		"--accept-package-agreements", "--accept-source-agreements", "--disable-interactivity"}
	if e.Version != "" {
		args = append(args, "--version", e.Version)
	}
	res := c.exec(ctx, "winget", args, wingetInstallFailureStrings,
		"Installing "+e.Label(), command.Options{})
	if !res.Success {
		return fmt.Errorf("winget install %s: %w\n%s", e.InstallID, res.Err, res.OutputText())
	}
	return nil
}

func (c *WingetClient) Uninstall(ctx context.Context, e Entry) error {
	res := c.exec(ctx, "winget",
		[]string{"uninstall", "--id", e.InstallID, "--exact", "--silent", "--disable-interactivity"},
		wingetUninstallFailureStrings, "Uninstalling "+e.Label(), command.Options{})
	if !res.Success {
		return fmt.Errorf("winget uninstall %s: %w\n%s", e.InstallID, res.Err, res.OutputText())
	}
	return nil
}

func (c *WingetClient) Upgrade(ctx context.Context, e Entry) error {
	res := c.exec(ctx, "winget",
		[]string{"upgrade", "--id", e.InstallID, "--exact", "--silent",
			"--accept-package-agreements", "--accept-source-agreements", "--disable-interactivity"},
		[]string{"No applicable update found", "Installer failed"},
		"Upgrading "+e.Label(), command.Options{})
	if !res.Success {
		return fmt.Errorf("winget upgrade %s: %w\n%s", e.InstallID, res.Err, res.OutputText())
	}
	return nil
}

func outputLinesContain(output []string, needle string) bool {
	for _, line := range output {
		if strings.Contains(line, needle) {
			return true
		}
	}
	return false
}
