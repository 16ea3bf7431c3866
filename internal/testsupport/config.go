package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"echodl/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.BinDir = filepath.Join(base, "bin")
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Driver.Command = "echodl-test-missing-driver"
	cfgVal.Driver.Launch = false
	cfgVal.Portal.BaseURL = "http://127.0.0.1:1"
	cfgVal.Portal.LoginURL = cfgVal.Portal.BaseURL + "/login"
	cfgVal.Portal.Username = "student"
	cfgVal.Portal.Password = "secret"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPortal points the portal settings at baseURL.
func WithPortal(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Portal.BaseURL = strings.TrimRight(baseURL, "/")
		b.cfg.Portal.LoginURL = b.cfg.Portal.BaseURL + "/login"
	}
}

// WithDriverRoot points driver downloads at root.
func WithDriverRoot(root string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Driver.DownloadRoot = strings.TrimRight(root, "/")
	}
}

// WithStubbedDriver writes a stub driver script onto a private PATH entry and
// configures it as the driver command. An empty script exits 0.
func WithStubbedDriver(script string) ConfigOption {
	return func(b *configBuilder) {
		if script == "" {
			script = "#!/bin/sh\nexit 0\n"
		}
		pathDir := filepath.Join(b.baseDir, "path")
		if err := os.MkdirAll(pathDir, 0o755); err != nil {
			b.t.Fatalf("mkdir path dir: %v", err)
		}
		target := filepath.Join(pathDir, "chromedriver")
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub driver: %v", err)
		}
		b.t.Setenv("PATH", pathDir+string(os.PathListSeparator)+os.Getenv("PATH"))
		b.cfg.Driver.Command = "chromedriver"
	}
}
