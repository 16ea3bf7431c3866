package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDriver(); err != nil {
		return err
	}
	if err := c.validatePortal(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDriver() error {
	if c.Driver.Version == "" {
		return errors.New("driver.version must be set")
	}
	if err := validateHTTPURL("driver.download_root", c.Driver.DownloadRoot); err != nil {
		return err
	}
	if c.Driver.DownloadTimeout < 0 {
		return errors.New("driver.download_timeout must be positive")
	}
	if c.Driver.StartupTimeout < 0 {
		return errors.New("driver.startup_timeout must be positive")
	}
	return nil
}

func (c *Config) validatePortal() error {
	if err := validateHTTPURL("portal.base_url", c.Portal.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("portal.login_url", c.Portal.LoginURL); err != nil {
		return err
	}
	if c.Portal.RequestTimeout < 0 {
		return errors.New("portal.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.HeaderTimeout < 0 {
		return errors.New("download.header_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host", field)
	}
	return nil
}
