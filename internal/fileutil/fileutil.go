package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// OwnerExecute is the owner execute permission bit.
const OwnerExecute fs.FileMode = 0o100

// IsRegularFile reports whether path exists and is a regular file.
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// IsExecutable reports whether info describes a file the owner may execute.
// Every regular file counts on Windows.
func IsExecutable(info fs.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// MakeExecutable adds the owner execute bit to path, leaving the other bits
// as they were.
func MakeExecutable(path string) (fs.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	mode := info.Mode().Perm() | OwnerExecute
	if err := os.Chmod(path, mode); err != nil {
		return 0, err
	}
	return mode, nil
}

// ResetDir removes dir with everything below it and creates it again empty.
func ResetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// WriteAtomic streams r into path through a sibling ".part" file that is
// renamed into place once the copy completes. The partial file is removed on
// failure. It returns the number of bytes written.
func WriteAtomic(path string, r io.Reader, mode os.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create parent: %w", err)
	}
	partial := path + ".part"
	out, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(out, r)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(partial)
		return written, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(partial)
		return written, err
	}
	if err := os.Rename(partial, path); err != nil {
		_ = os.Remove(partial)
		return written, err
	}
	return written, nil
}
