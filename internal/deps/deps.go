package deps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"echodl/internal/fileutil"
)

// Decision is the outcome of probing for the driver binary.
type Decision int

const (
	// NeedsProvision means no usable binary was found.
	NeedsProvision Decision = iota
	// UseLocal means the provisioned binary in the bin directory is present.
	UseLocal
	// UseSystemPath means a working binary answers on PATH.
	UseSystemPath
)

func (d Decision) String() string {
	switch d {
	case UseLocal:
		return "use-local"
	case UseSystemPath:
		return "use-system-path"
	default:
		return "needs-provision"
	}
}

const defaultVersionTimeout = 10 * time.Second

// Status reports what the probe found.
type Status struct {
	Decision  Decision
	LocalPath string
	Command   string
	Version   string
	Detail    string
}

// Path returns the binary to execute for the decision, or "" when the binary
// must be provisioned first.
func (s Status) Path() string {
	switch s.Decision {
	case UseLocal:
		return s.LocalPath
	case UseSystemPath:
		return s.Command
	default:
		return ""
	}
}

// Probe decides whether the driver can be used as-is.
type Probe struct {
	LocalPath string
	Command   string
	Timeout   time.Duration
}

// NewProbe builds a probe for the binary expected at localPath, falling back
// to command resolved through PATH.
func NewProbe(localPath, command string) *Probe {
	return &Probe{
		LocalPath: strings.TrimSpace(localPath),
		Command:   strings.TrimSpace(command),
		Timeout:   defaultVersionTimeout,
	}
}

// Check returns the first matching decision: local file, then a PATH binary
// that answers --version with exit status 0.
func (p *Probe) Check(ctx context.Context) Status {
	status := Status{LocalPath: p.LocalPath, Command: p.Command}
	if p.LocalPath != "" && fileutil.IsRegularFile(p.LocalPath) {
		status.Decision = UseLocal
		return status
	}
	if p.Command == "" {
		status.Decision = NeedsProvision
		status.Detail = "command not configured"
		return status
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultVersionTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(runCtx, p.Command, "--version") //nolint:gosec
	cmd.Stdout = &stdout
	err := cmd.Run()
	switch {
	case err == nil:
		status.Decision = UseSystemPath
		status.Version = strings.TrimSpace(stdout.String())
		if resolved, lookErr := exec.LookPath(p.Command); lookErr == nil {
			status.Command = resolved
		}
	case errors.Is(err, exec.ErrNotFound):
		status.Decision = NeedsProvision
		status.Detail = fmt.Sprintf("binary %q not found", p.Command)
	default:
		status.Decision = NeedsProvision
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status.Detail = fmt.Sprintf("%s --version exited with status %d", p.Command, exitErr.ExitCode())
		} else {
			status.Detail = fmt.Sprintf("%s --version failed: %v", p.Command, err)
		}
	}
	return status
}
