package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// BinDir holds the provisioned driver archive and its extracted contents.
	// Relative values resolve against the working directory.
	BinDir    string `toml:"bin_dir"`
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
}

// Driver contains configuration for the headless browser driver binary.
type Driver struct {
	Command         string `toml:"command"`
	DownloadRoot    string `toml:"download_root"`
	Version         string `toml:"version"`
	DownloadTimeout int    `toml:"download_timeout"`
	Launch          bool   `toml:"launch"`
	StartupTimeout  int    `toml:"startup_timeout"`
}

// Portal contains configuration for the lecture portal session.
type Portal struct {
	BaseURL        string `toml:"base_url"`
	LoginURL       string `toml:"login_url"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	UserAgent      string `toml:"user_agent"`
	BrowserCookies bool   `toml:"browser_cookies"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Download contains configuration for lecture media transfers.
type Download struct {
	SkipExisting  bool `toml:"skip_existing"`
	HeaderTimeout int  `toml:"header_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for echodl.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Driver   Driver   `toml:"driver"`
	Portal   Portal   `toml:"portal"`
	Download Download `toml:"download"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("echodl.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory. The bin directory is owned
// by the provisioner and the output directory by the download command.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

// HistoryPath is the SQLite database recording download outcomes.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// DriverDownloadTimeout bounds the archive download during provisioning.
func (c *Config) DriverDownloadTimeout() time.Duration {
	return time.Duration(c.Driver.DownloadTimeout) * time.Second
}

// DriverStartupTimeout bounds how long a launched driver may take to report ready.
func (c *Config) DriverStartupTimeout() time.Duration {
	return time.Duration(c.Driver.StartupTimeout) * time.Second
}

// PortalRequestTimeout bounds login and catalog requests.
func (c *Config) PortalRequestTimeout() time.Duration {
	return time.Duration(c.Portal.RequestTimeout) * time.Second
}

// DownloadHeaderTimeout bounds the wait for media response headers. The body
// transfer itself has no overall deadline.
func (c *Config) DownloadHeaderTimeout() time.Duration {
	return time.Duration(c.Download.HeaderTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
