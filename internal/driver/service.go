package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"echodl/internal/logging"
	"echodl/internal/services"
)

const (
	defaultStartupTimeout = 20 * time.Second
	statusPollInterval    = 200 * time.Millisecond
	stopGrace             = 3 * time.Second
)

// Launcher starts driver processes for download batches.
type Launcher struct {
	StartupTimeout time.Duration

	client *http.Client
	logger *slog.Logger
}

// NewLauncher returns a launcher that waits up to startupTimeout for the
// driver to report ready.
func NewLauncher(startupTimeout time.Duration, logger *slog.Logger) *Launcher {
	if startupTimeout <= 0 {
		startupTimeout = defaultStartupTimeout
	}
	return &Launcher{
		StartupTimeout: startupTimeout,
		client:         &http.Client{Timeout: 2 * time.Second},
		logger:         logging.NewComponentLogger(logger, "driver-service"),
	}
}

// Service is a running driver process.
type Service struct {
	binary string
	port   int
	cmd    *exec.Cmd
	done   chan struct{}
	logger *slog.Logger

	stopOnce sync.Once
	waitErr  error
}

// URL is the driver's HTTP endpoint.
func (s *Service) URL() string {
	return "http://127.0.0.1:" + strconv.Itoa(s.port)
}

// Start launches binary on a free loopback port and blocks until its status
// endpoint answers or the startup timeout passes.
func (l *Launcher) Start(ctx context.Context, binary string) (*Service, error) {
	port, err := freePort()
	if err != nil {
		return nil, services.Wrap(services.ErrDriverUnavailable, "driver", "allocate port", "", err)
	}

	cmd := exec.Command(binary, "--port="+strconv.Itoa(port)) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrDriverUnavailable, "driver", "start", binary, err)
	}
	svc := &Service{
		binary: binary,
		port:   port,
		cmd:    cmd,
		done:   make(chan struct{}),
		logger: l.logger,
	}
	go func() {
		svc.waitErr = cmd.Wait()
		close(svc.done)
	}()

	if err := l.waitReady(ctx, svc); err != nil {
		_ = svc.Stop()
		return nil, err
	}
	l.logger.Info("driver started",
		logging.String("binary", binary),
		logging.Int("port", port),
	)
	return svc, nil
}

func (l *Launcher) waitReady(ctx context.Context, svc *Service) error {
	deadline := time.NewTimer(l.StartupTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	statusURL := svc.URL() + "/status"
	for {
		if l.ready(ctx, statusURL) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-svc.done:
			return services.Wrap(services.ErrDriverUnavailable, "driver", "start", fmt.Sprintf("%s exited before becoming ready", svc.binary), svc.waitErr)
		case <-deadline.C:
			return services.Wrap(services.ErrDriverUnavailable, "driver", "start", fmt.Sprintf("%s not ready after %s", svc.binary, l.StartupTimeout), nil)
		case <-ticker.C:
		}
	}
}

func (l *Launcher) ready(ctx context.Context, statusURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return false
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Stop interrupts the driver and kills it if it does not exit promptly.
func (s *Service) Stop() error {
	if s == nil || s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	var err error
	s.stopOnce.Do(func() {
		select {
		case <-s.done:
			return
		default:
		}
		if sigErr := s.cmd.Process.Signal(os.Interrupt); sigErr != nil {
			_ = s.cmd.Process.Kill()
		}
		select {
		case <-s.done:
		case <-time.After(stopGrace):
			if killErr := s.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
				err = killErr
			}
			<-s.done
		}
		if s.logger != nil {
			s.logger.Debug("driver stopped", logging.Int("port", s.port))
		}
	})
	return err
}

func freePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
