//go:build windows

package tasks

import "os/exec"

// restartShell relaunches Explorer without supervising it; the shell
// outlives this process and must not be waited on.
var restartShell = func() {
	_ = exec.Command("explorer.exe").Start()
}
