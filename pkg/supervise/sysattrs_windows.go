//go:build windows

package supervise

import (
	"os/exec"
	"syscall"
)

// hideWindow keeps supervised commands from flashing console windows.
func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
