// pkg/config/config.go - configuration settings for winforge.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the console looks for its settings when no
// explicit path is given on the command line.
const DefaultConfigPath = `C:\ProgramData\WinForge\Config.yaml`

// Defaults for supervised external commands. The values are empirically
// tuned for slow installers and are deliberately configurable.
const (
	DefaultOverallTimeoutSeconds = 3600
	DefaultIdleTimeoutSeconds    = 300
)

// ThemeConfig holds the console color scheme. It is carried on the
// configuration instead of living in package-level state so that the
// renderer receives it explicitly.
type ThemeConfig struct {
	Accent  string `yaml:"Accent"`
	Warning string `yaml:"Warning"`
	Error   string `yaml:"Error"`
}

// Configuration holds the configurable options for winforge in YAML format.
type Configuration struct {
	CatalogsPath string `yaml:"CatalogsPath"`
	CachePath    string `yaml:"CachePath"`
	LogPath      string `yaml:"LogPath"`
	ReportPath   string `yaml:"ReportPath"`
	LogLevel     string `yaml:"LogLevel"`
	Debug        bool   `yaml:"Debug"`
	Verbose      bool   `yaml:"Verbose"`

	// Supervision timeouts for external commands (seconds).
	OverallTimeoutSeconds int  `yaml:"OverallTimeoutSeconds"`
	IdleTimeoutSeconds    int  `yaml:"IdleTimeoutSeconds"`
	DisableIdleTimeout    bool `yaml:"DisableIdleTimeout"`

	Theme ThemeConfig `yaml:"Theme"`
}

// LoadConfig loads the configuration from a YAML file. A missing file is not
// an error; the built-in defaults are returned so the console can run on a
// machine that has never been provisioned before.
func LoadConfig(path string) (*Configuration, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := &Configuration{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to defaults
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyDefaults(cfg)

	for _, dir := range []string{cfg.CachePath, cfg.CatalogsPath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return cfg, nil
}

// SaveConfig saves the current configuration to a YAML file.
func SaveConfig(cfg *Configuration, path string) error {
	if path == "" {
		path = DefaultConfigPath
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func applyDefaults(cfg *Configuration) {
	base := `C:\ProgramData\WinForge`
	if cfg.CatalogsPath == "" {
		cfg.CatalogsPath = filepath.Join(base, "catalogs")
	}
	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(base, "cache")
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(base, "logs")
	}
	if cfg.ReportPath == "" {
		cfg.ReportPath = filepath.Join(base, "reports")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	if cfg.OverallTimeoutSeconds <= 0 {
		cfg.OverallTimeoutSeconds = DefaultOverallTimeoutSeconds
	}
	if cfg.IdleTimeoutSeconds <= 0 {
		cfg.IdleTimeoutSeconds = DefaultIdleTimeoutSeconds
	}
	if cfg.Theme.Accent == "" {
		cfg.Theme.Accent = "cyan"
	}
	if cfg.Theme.Warning == "" {
		cfg.Theme.Warning = "yellow"
	}
	if cfg.Theme.Error == "" {
		cfg.Theme.Error = "red"
	}
}

// OverallTimeout returns the configured overall timeout as a duration.
func (c *Configuration) OverallTimeout() time.Duration {
	return time.Duration(c.OverallTimeoutSeconds) * time.Second
}

// IdleTimeout returns the configured idle timeout as a duration.
func (c *Configuration) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}
