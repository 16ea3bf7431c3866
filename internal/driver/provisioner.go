package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"echodl/internal/archive"
	"echodl/internal/config"
	"echodl/internal/fileutil"
	"echodl/internal/logging"
	"echodl/internal/platform"
	"echodl/internal/progress"
	"echodl/internal/services"
)

const (
	lockRetryDelay         = 250 * time.Millisecond
	defaultDownloadTimeout = 5 * time.Minute
)

// InstalledBinary is the result of a provisioning run.
type InstalledBinary struct {
	Path       string
	Executable bool
}

// Provisioner downloads and unpacks the pinned driver release into BinDir.
type Provisioner struct {
	BinDir  string
	Root    string
	Version string
	// Progress receives a progress bar when it is a terminal.
	Progress io.Writer

	client *http.Client
	logger *slog.Logger
}

// NewProvisioner builds a provisioner from the driver and path settings.
func NewProvisioner(cfg *config.Config, logger *slog.Logger) *Provisioner {
	timeout := cfg.DriverDownloadTimeout()
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	return &Provisioner{
		BinDir:   cfg.Paths.BinDir,
		Root:     cfg.Driver.DownloadRoot,
		Version:  cfg.Driver.Version,
		Progress: os.Stderr,
		client:   &http.Client{Timeout: timeout},
		logger:   logging.NewComponentLogger(logger, "provisioner"),
	}
}

// WithHTTPClient replaces the client used for the archive download.
func (p *Provisioner) WithHTTPClient(client *http.Client) *Provisioner {
	if client != nil {
		p.client = client
	}
	return p
}

// LockPath is the file guarding BinDir against concurrent provisioning.
func (p *Provisioner) LockPath() string {
	return strings.TrimRight(p.BinDir, string(os.PathSeparator)) + ".lock"
}

// Provision replaces BinDir with a fresh copy of the driver for artifact.
// Any previous contents of BinDir are removed.
func (p *Provisioner) Provision(ctx context.Context, artifact platform.Artifact) (InstalledBinary, error) {
	if strings.TrimSpace(p.BinDir) == "" {
		return InstalledBinary{}, services.Wrap(services.ErrConfiguration, "provision", "validate", "bin directory not configured", nil)
	}
	url := platform.DownloadURL(p.Root, p.Version, artifact)

	parent := filepath.Dir(filepath.Clean(p.BinDir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return InstalledBinary{}, services.Wrap(services.ErrFilesystem, "provision", "create bin parent", parent, err)
	}
	lock := flock.New(p.LockPath())
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return InstalledBinary{}, services.Wrap(services.ErrFilesystem, "provision", "lock", p.LockPath(), err)
	}
	if !locked {
		return InstalledBinary{}, services.Wrap(services.ErrFilesystem, "provision", "lock", "another provisioning run holds "+p.LockPath(), nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	p.logger.Info("provisioning driver",
		logging.String("url", url),
		logging.String("bin_dir", p.BinDir),
		logging.String("platform", string(artifact.Suffix)),
	)

	if err := fileutil.ResetDir(p.BinDir); err != nil {
		return InstalledBinary{}, services.Wrap(services.ErrFilesystem, "provision", "reset bin directory", p.BinDir, err)
	}

	archivePath := artifact.LocalArchivePath(p.BinDir)
	size, err := p.download(ctx, url, archivePath)
	if err != nil {
		return InstalledBinary{}, err
	}
	p.logger.Debug("archive downloaded",
		logging.String("path", archivePath),
		logging.String("size", progress.Bytes(size)),
		logging.Int64("bytes", size),
	)

	if err := archive.Extract(archivePath, p.BinDir); err != nil {
		return InstalledBinary{}, err
	}

	binaryPath := artifact.LocalBinaryPath(p.BinDir)
	if !fileutil.IsRegularFile(binaryPath) {
		return InstalledBinary{}, services.Wrap(services.ErrFilesystem, "provision", "locate binary", fmt.Sprintf("%s missing from %s", artifact.BinaryName, artifact.ArchiveName), nil)
	}
	mode, err := fileutil.MakeExecutable(binaryPath)
	if err != nil {
		return InstalledBinary{}, services.Wrap(services.ErrFilesystem, "provision", "chmod", binaryPath, err)
	}

	p.logger.Info("driver provisioned",
		logging.String("path", binaryPath),
		logging.String("mode", mode.String()),
	)
	return InstalledBinary{Path: binaryPath, Executable: mode&fileutil.OwnerExecute != 0}, nil
}

// readTracker remembers read-side failures so transport errors can be told
// apart from disk errors after io.Copy returns.
type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(b []byte) (int, error) {
	n, err := t.r.Read(b)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}

func (p *Provisioner) download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrNetwork, "provision", "build request", url, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrNetwork, "provision", "download", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, services.Wrap(services.ErrNetwork, "provision", "download", fmt.Sprintf("%s returned %s", url, resp.Status), nil)
	}

	bar := progress.New(p.Progress, resp.ContentLength, "driver")
	tracker := &readTracker{r: resp.Body}
	written, err := fileutil.WriteAtomic(dest, io.TeeReader(tracker, bar), 0o644)
	_ = bar.Finish()
	if err != nil {
		if tracker.err != nil {
			return written, services.Wrap(services.ErrNetwork, "provision", "download", url, err)
		}
		return written, services.Wrap(services.ErrFilesystem, "provision", "write archive", dest, err)
	}
	return written, nil
}
