package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

const portalCheckTimeout = 10 * time.Second

// CheckPortal verifies that the portal answers HTTP requests. Any response
// below 500 counts as reachable since the root may require a session.
func CheckPortal(ctx context.Context, baseURL string) Result {
	const name = "Portal"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, portalCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", base, err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", base, summarizeNetError(err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: status %d)", base, resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", base)}
}

// ResolveOutputDir returns requested when it is an existing directory and
// fallback otherwise. The second value explains a fallback and is empty when
// requested was used.
func ResolveOutputDir(requested, fallback string) (string, string) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return fallback, ""
	}
	info, err := os.Stat(requested)
	switch {
	case err != nil:
		return fallback, fmt.Sprintf("output directory %s is unavailable (%v); using %s", requested, err, fallback)
	case !info.IsDir():
		return fallback, fmt.Sprintf("output path %s is not a directory; using %s", requested, fallback)
	default:
		return requested, ""
	}
}

func statDirectory(name, path string) (Result, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}, false
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}, false
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}, false
	}
	return Result{}, true
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	return err.Error()
}
