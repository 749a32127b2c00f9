// pkg/logging/logging.go - structured key-value logging for winforge.
//
// Log lines go to the console and to a rotating file under the configured
// log directory. Each run is tagged with a unique session id so external
// reporting can correlate a report with its log lines.

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/windowsadmins/winforge/pkg/config"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

func parseLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Logger writes leveled key-value log lines.
type Logger struct {
	mu        sync.Mutex
	level     LogLevel
	console   io.Writer
	file      io.WriteCloser
	sessionID string
}

var (
	instance *Logger
	once     sync.Once
)

// Init initializes the singleton Logger based on the provided configuration.
// It must be called before any logging functions are used; without it the
// package falls back to console-only output at INFO level, and once that
// fallback exists a later Init leaves it in place.
func Init(cfg *config.Configuration) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLogger(cfg)
	})
	return initErr
}

func newLogger(cfg *config.Configuration) (*Logger, error) {
	l := &Logger{
		level:     parseLevel(cfg.LogLevel),
		console:   os.Stdout,
		sessionID: uuid.NewString(),
	}
	if cfg.Debug {
		l.level = LevelDebug
	}
	if cfg.LogPath != "" {
		if err := os.MkdirAll(cfg.LogPath, 0755); err != nil {
			return nil, fmt.Errorf("creating log directory %s: %w", cfg.LogPath, err)
		}
		l.file = &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogPath, "winforge.log"),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
	}
	return l, nil
}

// SessionID returns the unique identifier of the current logging session.
func SessionID() string {
	if instance == nil {
		return ""
	}
	return instance.sessionID
}

// CloseLogger flushes and closes the file sink.
func CloseLogger() {
	if instance != nil && instance.file != nil {
		_ = instance.file.Close()
	}
}

func get() *Logger {
	// The fallback goes through the same once as Init so a later Init cannot
	// swap the singleton out from under callers.
	once.Do(func() {
		instance = &Logger{level: LevelInfo, console: os.Stderr, sessionID: uuid.NewString()}
	})
	return instance
}

func (l *Logger) log(level LogLevel, message string, keyValues ...interface{}) {
	if level > l.level {
		return
	}
	line := formatLine(level, message, keyValues...)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, line)
	if l.file != nil {
		fmt.Fprintln(l.file, line)
	}
}

func formatLine(level LogLevel, message string, keyValues ...interface{}) string {
	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString(" ")
	b.WriteString(level.String())
	b.WriteString(" ")
	b.WriteString(message)
	for i := 0; i+1 < len(keyValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyValues[i], keyValues[i+1])
	}
	if len(keyValues)%2 == 1 {
		fmt.Fprintf(&b, " %v", keyValues[len(keyValues)-1])
	}
	return b.String()
}

// Error logs a message at ERROR level with optional key-value pairs.
func Error(message string, keyValues ...interface{}) {
	get().log(LevelError, message, keyValues...)
}

// Warn logs a message at WARN level with optional key-value pairs.
func Warn(message string, keyValues ...interface{}) {
	get().log(LevelWarn, message, keyValues...)
}

// Info logs a message at INFO level with optional key-value pairs.
func Info(message string, keyValues ...interface{}) {
	get().log(LevelInfo, message, keyValues...)
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func Debug(message string, keyValues ...interface{}) {
	get().log(LevelDebug, message, keyValues...)
}
