// pkg/tasks/tasks.go - built-in task types for the provisioning engine.
//
// Each task type contributes a Verify/Apply/Revert triple. RegisterAll wires
// every built-in type into a registry at startup; new types join by adding a
// registration here, not by touching the dispatch loop.

package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/windowsadmins/winforge/pkg/command"
	"github.com/windowsadmins/winforge/pkg/engine"
)

// RegisterAll installs every built-in task type.
func RegisterAll(reg *engine.Registry) {
	reg.Register("Registry", registryHandlers())
	reg.Register("ProtectedRegistry", protectedRegistryHandlers())
	reg.Alias("RegistryWithExplorerRestart", "Registry", withExplorerRestart)
	reg.Register("AppxPackage", appxHandlers())
	reg.Register("PowerPlan", powerPlanHandlers())
	reg.Register("Service", serviceHandlers())
	reg.Register("PowerShellCommand", powerShellCommandHandlers())
	reg.Register("SimpleCommand", simpleCommandHandlers())
	reg.Register("DiskCleanup", diskCleanupHandlers())
	reg.Register("FindLargeFiles", findLargeFilesHandlers())
	reg.Register("AnalyzeProcesses", analyzeProcessesHandlers())
	reg.Register("SetDNS", setDNSHandlers())
	reg.Register("RecycleBinCleanup", recycleBinHandlers())
	reg.Register("WindowsUpdateCleanup", windowsUpdateCleanupHandlers())
}

// decodeDetails unmarshals a task's details payload into a typed struct.
func decodeDetails(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("task has no details payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding task details: %w", err)
	}
	return nil
}

// powerShellExe resolves the Windows PowerShell binary.
func powerShellExe() string {
	if windir := os.Getenv("WINDIR"); windir != "" {
		return filepath.Join(windir, "system32", "WindowsPowershell", "v1.0", "powershell.exe")
	}
	return "powershell.exe"
}

// runPowerShell runs one PowerShell command string under supervision.
func runPowerShell(ctx context.Context, env *engine.Env, psCommand, activity string, failureStrings []string, opts command.Options) command.Result {
	args := []string{"-NoProfile", "-NoLogo", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-Command", psCommand}
	return env.RunNative(ctx, powerShellExe(), args, failureStrings, activity, opts)
}

// lastOutputLine returns the final non-empty output line, trimmed.
func lastOutputLine(output []string) string {
	for i := len(output) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(output[i]); line != "" {
			return line
		}
	}
	return ""
}

func outputContains(output []string, needle string) bool {
	for _, line := range output {
		if strings.Contains(line, needle) {
			return true
		}
	}
	return false
}
