package driver

import (
	"context"
	"log/slog"
	"os"

	"echodl/internal/config"
	"echodl/internal/deps"
	"echodl/internal/fileutil"
	"echodl/internal/logging"
	"echodl/internal/platform"
	"echodl/internal/services"
)

// Bootstrap picks the driver binary for a run, provisioning it when the probe
// finds nothing usable.
type Bootstrap struct {
	Artifact    platform.Artifact
	Probe       *deps.Probe
	Provisioner *Provisioner
	// Force provisions even when a usable binary exists.
	Force bool

	logger *slog.Logger
}

// NewBootstrap wires the probe and provisioner for the current platform.
func NewBootstrap(cfg *config.Config, logger *slog.Logger) (*Bootstrap, error) {
	artifact, err := platform.Current()
	if err != nil {
		return nil, err
	}
	return &Bootstrap{
		Artifact:    artifact,
		Probe:       deps.NewProbe(artifact.LocalBinaryPath(cfg.Paths.BinDir), cfg.Driver.Command),
		Provisioner: NewProvisioner(cfg, logger),
		logger:      logging.NewComponentLogger(logger, "driver"),
	}, nil
}

// Status probes without provisioning.
func (b *Bootstrap) Status(ctx context.Context) deps.Status {
	return b.Probe.Check(ctx)
}

// Install provisions unconditionally.
func (b *Bootstrap) Install(ctx context.Context) (InstalledBinary, error) {
	return b.Provisioner.Provision(ctx, b.Artifact)
}

// Resolve returns the path of the binary to run.
func (b *Bootstrap) Resolve(ctx context.Context) (string, error) {
	logger := b.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if !b.Force {
		status := b.Probe.Check(ctx)
		logger.Debug("driver probe",
			logging.String("decision", status.Decision.String()),
			logging.String("detail", status.Detail),
		)
		if path := status.Path(); path != "" {
			if status.Decision == deps.UseLocal {
				if err := ensureExecutable(path); err != nil {
					return "", err
				}
			}
			logger.Info("using driver",
				logging.String("decision", status.Decision.String()),
				logging.String("path", path),
			)
			return path, nil
		}
	}
	installed, err := b.Install(ctx)
	if err != nil {
		return "", err
	}
	if !installed.Executable {
		return "", services.Wrap(services.ErrFilesystem, "driver", "resolve", installed.Path+" is not executable", nil)
	}
	return installed.Path, nil
}

// ensureExecutable restores the owner execute bit on a local binary that lost
// it, for example after being copied into the bin directory by hand.
func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "driver", "stat", path, err)
	}
	if fileutil.IsExecutable(info) {
		return nil
	}
	if _, err := fileutil.MakeExecutable(path); err != nil {
		return services.Wrap(services.ErrFilesystem, "driver", "chmod", path, err)
	}
	return nil
}
