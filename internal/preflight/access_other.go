//go:build !unix

package preflight

import (
	"fmt"
	"os"
)

// CheckDirectoryAccess verifies that the directory exists and accepts new files.
func CheckDirectoryAccess(name, path string) Result {
	if failed, ok := statDirectory(name, path); !ok {
		return failed
	}
	probe, err := os.CreateTemp(path, ".echodl-preflight-*")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", path, err)}
	}
	probe.Close()
	_ = os.Remove(probe.Name())
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
