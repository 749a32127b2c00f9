//go:build !windows

package winsec

var fallback = NewRecorder()

// Default returns the recording stand-in on non-Windows builds.
func Default() Elevator { return fallback }
