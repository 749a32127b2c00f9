// pkg/supervise/testcmds_other_test.go

//go:build !windows

package supervise

import "fmt"

func echoCmd(lines ...string) (string, []string) {
	script := ""
	for _, l := range lines {
		script += fmt.Sprintf("echo %q; ", l)
	}
	return "sh", []string{"-c", script}
}

func exitCmd(code int) (string, []string) {
	return "sh", []string{"-c", fmt.Sprintf("exit %d", code)}
}

func silentSleepCmd(seconds int) (string, []string) {
	return "sh", []string{"-c", fmt.Sprintf("sleep %d", seconds)}
}
