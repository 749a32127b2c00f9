// pkg/console/console.go - interactive console front end.
//
// The Console is the engine's UI collaborator: it confirms destructive
// actions, shows menus, and renders progress from supervised commands. All
// engine and task code talks to it through the Confirmer and Notifier
// contracts rather than printing directly.

package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/windowsadmins/winforge/pkg/config"
)

// ErrMenuQuit reports that the operator chose to leave the menu.
var ErrMenuQuit = fmt.Errorf("menu quit")

// Level classifies a notification for theming.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

var ansiColors = map[string]string{
	"black":   "30",
	"red":     "31",
	"green":   "32",
	"yellow":  "33",
	"blue":    "34",
	"magenta": "35",
	"cyan":    "36",
	"white":   "37",
}

// Theme maps notification levels to ANSI colors per the configuration.
type Theme struct {
	accent  string
	warning string
	errcol  string
	enabled bool
}

// NewTheme builds a theme from the configured color names. Unknown names
// render uncolored.
func NewTheme(cfg config.ThemeConfig, colorEnabled bool) Theme {
	return Theme{
		accent:  ansiColors[strings.ToLower(cfg.Accent)],
		warning: ansiColors[strings.ToLower(cfg.Warning)],
		errcol:  ansiColors[strings.ToLower(cfg.Error)],
		enabled: colorEnabled,
	}
}

func (t Theme) paint(code, s string) string {
	if !t.enabled || code == "" {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

// Accent renders s in the accent color.
func (t Theme) Accent(s string) string { return t.paint(t.accent, s) }

// Warning renders s in the warning color.
func (t Theme) Warning(s string) string { return t.paint(t.warning, s) }

// Error renders s in the error color.
func (t Theme) Error(s string) string { return t.paint(t.errcol, s) }

// Console reads operator input from in and renders to out.
type Console struct {
	in    *bufio.Reader
	out   io.Writer
	theme Theme

	lastProgressActivity string
}

// New returns a console over the given streams.
func New(in io.Reader, out io.Writer, theme Theme) *Console {
	return &Console{in: bufio.NewReader(in), out: out, theme: theme}
}

// Default returns a console over stdin/stdout.
func Default(theme Theme) *Console {
	return New(os.Stdin, os.Stdout, theme)
}

// Confirm asks a yes/no question. Anything other than y/yes declines; EOF
// declines so a closed stdin never confirms a destructive action.
func (c *Console) Confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Notify renders one themed message line.
func (c *Console) Notify(level Level, message string) {
	switch level {
	case LevelWarning:
		fmt.Fprintln(c.out, c.theme.Warning("! "+message))
	case LevelError:
		fmt.Fprintln(c.out, c.theme.Error("x "+message))
	default:
		fmt.Fprintln(c.out, message)
	}
}

// Progress renders a supervised command's progress percentage in place.
func (c *Console) Progress(activity string, percent int) {
	if activity != c.lastProgressActivity {
		c.lastProgressActivity = activity
		fmt.Fprintln(c.out, c.theme.Accent(activity))
	}
	fmt.Fprintf(c.out, "\r  %3d%%", percent)
	if percent >= 100 {
		fmt.Fprintln(c.out)
	}
}

// Status renders a supervised command's status line.
func (c *Console) Status(activity, message string) {
	if c.lastProgressActivity == activity {
		// Terminate the in-place progress line before the status.
		fmt.Fprintln(c.out)
		c.lastProgressActivity = ""
	}
	fmt.Fprintf(c.out, "%s: %s\n", activity, message)
}

// ShowMenu renders a numbered menu and reads one selection. It returns the
// selected index into items, or ErrMenuQuit when the operator enters q.
func (c *Console) ShowMenu(title string, items []string) (int, error) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.theme.Accent(title))
	for i, item := range items {
		fmt.Fprintf(c.out, "  %2d. %s\n", i+1, item)
	}

	for {
		fmt.Fprintf(c.out, "Select [1-%d, q to quit]: ", len(items))
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			return 0, ErrMenuQuit
		}
		choice := strings.ToLower(strings.TrimSpace(line))
		if choice == "q" || choice == "quit" {
			return 0, ErrMenuQuit
		}
		n, convErr := strconv.Atoi(choice)
		if convErr == nil && n >= 1 && n <= len(items) {
			return n - 1, nil
		}
		c.Notify(LevelWarning, fmt.Sprintf("invalid selection %q", choice))
	}
}
