// pkg/console/console_test.go

package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/winforge/pkg/config"
)

func plainConsole(input string) (*Console, *bytes.Buffer) {
	out := &bytes.Buffer{}
	theme := NewTheme(config.ThemeConfig{}, false)
	return New(strings.NewReader(input), out, theme), out
}

func TestConfirm(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"\n", false},
		{"whatever\n", false},
		{"", false}, // EOF declines
	}
	for _, tc := range cases {
		c, _ := plainConsole(tc.input)
		assert.Equal(t, tc.want, c.Confirm("Proceed?"), "input %q", tc.input)
	}
}

func TestShowMenuSelection(t *testing.T) {
	c, out := plainConsole("2\n")
	idx, err := c.ShowMenu("Pick", []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, out.String(), "1. first")
	assert.Contains(t, out.String(), "2. second")
}

func TestShowMenuRejectsInvalidThenAccepts(t *testing.T) {
	c, out := plainConsole("0\nbanana\n1\n")
	idx, err := c.ShowMenu("Pick", []string{"only"})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Contains(t, out.String(), "invalid selection")
}

func TestShowMenuQuit(t *testing.T) {
	c, _ := plainConsole("q\n")
	_, err := c.ShowMenu("Pick", []string{"a"})
	assert.ErrorIs(t, err, ErrMenuQuit)

	c, _ = plainConsole("") // EOF quits too
	_, err = c.ShowMenu("Pick", []string{"a"})
	assert.ErrorIs(t, err, ErrMenuQuit)
}

func TestThemePaintsWhenEnabled(t *testing.T) {
	theme := NewTheme(config.ThemeConfig{Accent: "cyan", Warning: "yellow", Error: "red"}, true)
	assert.Equal(t, "\x1b[36mhi\x1b[0m", theme.Accent("hi"))
	assert.Equal(t, "\x1b[33mhi\x1b[0m", theme.Warning("hi"))
	assert.Equal(t, "\x1b[31mhi\x1b[0m", theme.Error("hi"))

	disabled := NewTheme(config.ThemeConfig{Accent: "cyan"}, false)
	assert.Equal(t, "hi", disabled.Accent("hi"))

	unknown := NewTheme(config.ThemeConfig{Accent: "mauve"}, true)
	assert.Equal(t, "hi", unknown.Accent("hi"))
}

func TestProgressRendering(t *testing.T) {
	c, out := plainConsole("")
	c.Progress("Cleaning", 10)
	c.Progress("Cleaning", 55)
	c.Progress("Cleaning", 100)

	s := out.String()
	assert.Contains(t, s, "Cleaning")
	assert.Contains(t, s, " 55%")
	assert.Contains(t, s, "100%")
}

func TestStatusTerminatesProgressLine(t *testing.T) {
	c, out := plainConsole("")
	c.Progress("Cleaning", 40)
	c.Status("Cleaning", "completed")

	assert.Contains(t, out.String(), "Cleaning: completed")
}
