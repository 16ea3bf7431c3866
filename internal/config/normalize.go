package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// envOverrides lists the ECHODL_* variables that take precedence over the file.
// Explicit envconfig tags are avoided because they fall back to the unprefixed
// name, and USERNAME is set by most login shells.
type envOverrides struct {
	Username string
	Password string
	BinDir   string `split_words:"true"`
	LogLevel string `split_words:"true"`
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("echodl", &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if env.Username != "" {
		c.Portal.Username = env.Username
	}
	if env.Password != "" {
		c.Portal.Password = env.Password
	}
	if env.BinDir != "" {
		c.Paths.BinDir = env.BinDir
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	return nil
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDriver()
	c.normalizePortal()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.BinDir) == "" {
		c.Paths.BinDir = defaultBinDir
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.BinDir, err = expandPath(strings.TrimSpace(c.Paths.BinDir)); err != nil {
		return fmt.Errorf("paths.bin_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDriver() {
	c.Driver.Command = strings.TrimSpace(c.Driver.Command)
	if c.Driver.Command == "" {
		c.Driver.Command = defaultDriverCommand
	}
	c.Driver.DownloadRoot = strings.TrimRight(strings.TrimSpace(c.Driver.DownloadRoot), "/")
	if c.Driver.DownloadRoot == "" {
		c.Driver.DownloadRoot = defaultDriverDownloadRoot
	}
	c.Driver.Version = strings.Trim(strings.TrimSpace(c.Driver.Version), "/")
	if c.Driver.DownloadTimeout == 0 {
		c.Driver.DownloadTimeout = defaultDriverDownloadTimeout
	}
	if c.Driver.StartupTimeout == 0 {
		c.Driver.StartupTimeout = defaultDriverStartupTimeout
	}
}

func (c *Config) normalizePortal() {
	c.Portal.BaseURL = strings.TrimRight(strings.TrimSpace(c.Portal.BaseURL), "/")
	if c.Portal.BaseURL == "" {
		c.Portal.BaseURL = defaultPortalBaseURL
	}
	c.Portal.LoginURL = strings.TrimSpace(c.Portal.LoginURL)
	if c.Portal.LoginURL == "" {
		c.Portal.LoginURL = c.Portal.BaseURL + "/login"
	}
	c.Portal.Username = strings.TrimSpace(c.Portal.Username)
	c.Portal.UserAgent = strings.TrimSpace(c.Portal.UserAgent)
	if c.Portal.UserAgent == "" {
		c.Portal.UserAgent = defaultPortalUserAgent
	}
	if c.Portal.RequestTimeout == 0 {
		c.Portal.RequestTimeout = defaultPortalRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
