// cmd/winforge/ansi_other.go

//go:build !windows

package main

func enableANSIConsole() {}
