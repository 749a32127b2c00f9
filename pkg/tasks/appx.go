// pkg/tasks/appx.go - provisioned Appx package removal and re-registration.

package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/command"
	"github.com/windowsadmins/winforge/pkg/engine"
)

type appxDetails struct {
	PackageName string `json:"packageName"`
	State       string `json:"state"` // "Removed" is the only supported target
	// ManifestPath re-registers the package on revert.
	ManifestPath string `json:"manifestPath,omitempty"`
}

func quotePS(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func verifyAppx(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	var d appxDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return engine.StatusError, err
	}

	ps := fmt.Sprintf("[bool](Get-AppxPackage -AllUsers -Name %s)", quotePS(d.PackageName))
	res := runPowerShell(ctx, env, ps, "Checking Appx package "+d.PackageName, nil, command.Options{})
	if !res.Success {
		return engine.StatusError, fmt.Errorf("querying Appx package %s: %w", d.PackageName, res.Err)
	}

	installed := strings.EqualFold(lastOutputLine(res.Output), "True")
	if strings.EqualFold(d.State, "Removed") {
		if installed {
			return engine.StatusPending, nil
		}
		return engine.StatusApplied, nil
	}
	if installed {
		return engine.StatusApplied, nil
	}
	return engine.StatusPending, nil
}

func applyAppx(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var d appxDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return err
	}
	if !strings.EqualFold(d.State, "Removed") {
		return fmt.Errorf("unsupported Appx target state %q for %s", d.State, d.PackageName)
	}

	ps := fmt.Sprintf("Get-AppxPackage -AllUsers -Name %s | Remove-AppxPackage -AllUsers -ErrorAction Stop",
		quotePS(d.PackageName))
	res := runPowerShell(ctx, env, ps, "Removing Appx package "+d.PackageName,
		[]string{"Remove-AppxPackage : "}, command.Options{})
	if !res.Success {
		return fmt.Errorf("removing Appx package %s: %w\n%s", d.PackageName, res.Err, res.OutputText())
	}
	return nil
}

func revertAppx(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var rd appxDetails
	if err := decodeDetails(t.RevertDetails, &rd); err != nil {
		return err
	}
	if rd.ManifestPath == "" {
		return fmt.Errorf("revert of Appx package %s needs a manifestPath", rd.PackageName)
	}

	ps := fmt.Sprintf("Add-AppxPackage -DisableDevelopmentMode -Register %s -ErrorAction Stop",
		quotePS(rd.ManifestPath))
	res := runPowerShell(ctx, env, ps, "Re-registering Appx package "+rd.PackageName,
		[]string{"Add-AppxPackage : "}, command.Options{})
	if !res.Success {
		return fmt.Errorf("re-registering Appx package %s: %w\n%s", rd.PackageName, res.Err, res.OutputText())
	}
	return nil
}

func appxHandlers() engine.Handlers {
	return engine.Handlers{Verify: verifyAppx, Apply: applyAppx, Revert: revertAppx}
}
