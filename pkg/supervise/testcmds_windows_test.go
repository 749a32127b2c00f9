// pkg/supervise/testcmds_windows_test.go

//go:build windows

package supervise

import "fmt"

func echoCmd(lines ...string) (string, []string) {
	script := ""
	for i, l := range lines {
		if i > 0 {
			script += " & "
		}
		script += "echo " + l
	}
	return "cmd", []string{"/c", script}
}

func exitCmd(code int) (string, []string) {
	return "cmd", []string{"/c", fmt.Sprintf("exit %d", code)}
}

func silentSleepCmd(seconds int) (string, []string) {
	// timeout.exe needs a console; ping is the quiet portable sleep.
	return "cmd", []string{"/c", fmt.Sprintf("ping -n %d 127.0.0.1 >NUL", seconds+1)}
}
