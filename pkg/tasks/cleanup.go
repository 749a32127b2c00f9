// pkg/tasks/cleanup.go - disk and component-store cleanup task types.

package tasks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/windowsadmins/winforge/pkg/catalog"
	"github.com/windowsadmins/winforge/pkg/command"
	"github.com/windowsadmins/winforge/pkg/engine"
	"github.com/windowsadmins/winforge/pkg/logging"
)

type diskCleanupDetails struct {
	Drive string `json:"drive,omitempty"`
}

func (d diskCleanupDetails) drive() string {
	if d.Drive == "" {
		return "C:"
	}
	return strings.TrimSuffix(d.Drive, `\`)
}

// verifyDiskCleanup reports pending whenever the drive exists: cleanup is a
// maintenance action, not a persisted state, so there is nothing to converge.
func verifyDiskCleanup(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	var d diskCleanupDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return engine.StatusError, err
	}
	return engine.StatusPending, nil
}

func applyDiskCleanup(ctx context.Context, env *engine.Env, t catalog.Task) error {
	var d diskCleanupDetails
	if err := decodeDetails(t.Details, &d); err != nil {
		return err
	}
	drive := d.drive()

	before, usageErr := disk.Usage(drive + `\`)
	if usageErr != nil {
		logging.Warn("Could not read disk usage before cleanup", "drive", drive, "error", usageErr)
	}

	// cleanmgr emits nothing while it works, so the idle clock is off for
	// this run; only the overall timeout bounds it.
	res := env.RunNative(ctx, "cleanmgr.exe", []string{"/d", drive, "/verylowdisk"},
		nil, "Disk Cleanup on "+drive, command.Options{DisableIdleTimeout: true})
	if !res.Success {
		return fmt.Errorf("disk cleanup on %s failed: %w", drive, res.Err)
	}

	if usageErr == nil {
		if after, err := disk.Usage(drive + `\`); err == nil {
			freedMB := (int64(after.Free) - int64(before.Free)) / (1024 * 1024)
			if freedMB < 0 {
				freedMB = 0
			}
			notifyStatus(env, "Disk Cleanup on "+drive, fmt.Sprintf("reclaimed %d MB", freedMB))
			logging.Info("Disk cleanup finished", "drive", drive, "reclaimedMB", freedMB)
		}
	}
	return nil
}

func diskCleanupHandlers() engine.Handlers {
	return engine.Handlers{
		Verify: verifyDiskCleanup,
		Apply:  applyDiskCleanup,
	}
}

func verifyRecycleBin(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	res := runPowerShell(ctx, env,
		`(New-Object -ComObject Shell.Application).NameSpace(0xA).Items().Count`,
		"Checking "+t.Label(), nil, command.Options{})
	if !res.Success {
		return engine.StatusError, fmt.Errorf("counting recycle bin items: %w", res.Err)
	}
	if lastOutputLine(res.Output) == "0" {
		return engine.StatusApplied, nil
	}
	return engine.StatusPending, nil
}

func applyRecycleBin(ctx context.Context, env *engine.Env, t catalog.Task) error {
	// -ErrorAction SilentlyContinue: Clear-RecycleBin errors out when the
	// bin is already empty on some builds.
	res := runPowerShell(ctx, env,
		`Clear-RecycleBin -Force -ErrorAction SilentlyContinue`,
		"Emptying Recycle Bin", nil, command.Options{})
	if !res.Success {
		return fmt.Errorf("emptying recycle bin: %w\n%s", res.Err, res.OutputText())
	}
	return nil
}

func recycleBinHandlers() engine.Handlers {
	return engine.Handlers{
		Verify: verifyRecycleBin,
		Apply:  applyRecycleBin,
	}
}

// dismProgressPattern matches DISM's "[=== 42.5% ===]" style progress lines.
var dismProgressPattern = regexp.MustCompile(`(\d+)(?:\.\d+)?%`)

func verifyWindowsUpdateCleanup(ctx context.Context, env *engine.Env, t catalog.Task) (engine.Status, error) {
	res := env.RunNative(ctx, "dism.exe",
		[]string{"/Online", "/Cleanup-Image", "/AnalyzeComponentStore"},
		[]string{"Error:"}, "Analyzing component store", command.Options{})
	if !res.Success {
		return engine.StatusError, fmt.Errorf("analyzing component store: %w", res.Err)
	}
	if outputContains(res.Output, "Component Store Cleanup Recommended : Yes") {
		return engine.StatusPending, nil
	}
	return engine.StatusApplied, nil
}

func applyWindowsUpdateCleanup(ctx context.Context, env *engine.Env, t catalog.Task) error {
	res := env.RunNative(ctx, "dism.exe",
		[]string{"/Online", "/Cleanup-Image", "/StartComponentCleanup", "/ResetBase"},
		[]string{"Error:"}, "Cleaning up Windows Update files",
		command.Options{ProgressPattern: dismProgressPattern})
	if !res.Success {
		return fmt.Errorf("component store cleanup failed: %w\n%s", res.Err, res.OutputText())
	}
	return nil
}

func windowsUpdateCleanupHandlers() engine.Handlers {
	return engine.Handlers{
		Verify: verifyWindowsUpdateCleanup,
		Apply:  applyWindowsUpdateCleanup,
	}
}

func notifyStatus(env *engine.Env, activity, message string) {
	if env.Notifier != nil {
		env.Notifier.Status(activity, message)
	}
}
