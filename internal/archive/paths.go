package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"echodl/internal/services"
)

// entryPath joins name onto dst and rejects entries that escape it.
func entryPath(dst, name string) (string, error) {
	cleaned := filepath.FromSlash(strings.TrimLeft(name, "/"))
	target := filepath.Join(dst, cleaned)
	rel, err := filepath.Rel(dst, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes destination", name)
	}
	return target, nil
}

func writeEntry(target string, mode fs.FileMode, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return services.Wrap(services.ErrFilesystem, "archive", "create parent", target, err)
	}
	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "archive", "create entry", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return services.Wrap(services.ErrArchiveFormat, "archive", "copy entry", target, err)
	}
	if err := out.Close(); err != nil {
		return services.Wrap(services.ErrFilesystem, "archive", "close entry", target, err)
	}
	return os.Chmod(target, perm)
}

func mkdirEntry(target string) error {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return services.Wrap(services.ErrFilesystem, "archive", "create directory", target, err)
	}
	return nil
}
