//go:build !windows

package winreg

var fallback = NewMemStore()

// Default returns the in-memory stand-in on non-Windows builds.
func Default() Store { return fallback }
