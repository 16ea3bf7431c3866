package platform

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"echodl/internal/services"
)

// Suffix identifies a published driver build.
type Suffix string

const (
	Linux32 Suffix = "linux32"
	Linux64 Suffix = "linux64"
	Win32   Suffix = "win32"
	Mac64   Suffix = "mac64"
)

const binaryBase = "chromedriver"

// Artifact describes the archive and binary published for one platform.
type Artifact struct {
	Suffix      Suffix
	ArchiveName string
	BinaryName  string
}

// Windows reports whether the artifact targets a Windows host.
func (a Artifact) Windows() bool {
	return strings.HasPrefix(string(a.Suffix), "win")
}

// LocalBinaryPath is where the extracted binary lives inside binDir.
func (a Artifact) LocalBinaryPath(binDir string) string {
	return filepath.Join(binDir, a.BinaryName)
}

// LocalArchivePath is where the downloaded archive is stored inside binDir.
func (a Artifact) LocalArchivePath(binDir string) string {
	return filepath.Join(binDir, a.ArchiveName)
}

// Resolve maps an operating system name and pointer width to an artifact.
func Resolve(goos string, pointerBits int) (Artifact, error) {
	var suffix Suffix
	switch goos {
	case "linux":
		suffix = Linux32
		if pointerBits > 32 {
			suffix = Linux64
		}
	case "windows":
		suffix = Win32
	case "darwin":
		suffix = Mac64
	default:
		return Artifact{}, services.Wrap(
			services.ErrUnsupportedPlatform,
			"platform",
			"resolve",
			fmt.Sprintf("no driver build for %s/%d-bit", goos, pointerBits),
			nil,
		)
	}
	return newArtifact(suffix), nil
}

// Current resolves the artifact for the running process.
func Current() (Artifact, error) {
	return Resolve(runtime.GOOS, strconv.IntSize)
}

func newArtifact(suffix Suffix) Artifact {
	artifact := Artifact{
		Suffix:      suffix,
		ArchiveName: binaryBase + "_" + string(suffix) + ".zip",
		BinaryName:  binaryBase,
	}
	if artifact.Windows() {
		artifact.BinaryName += ".exe"
	}
	return artifact
}

// DownloadURL joins the download root, pinned version, and archive name.
func DownloadURL(root, version string, artifact Artifact) string {
	root = strings.TrimRight(root, "/")
	version = strings.Trim(version, "/")
	return root + "/" + version + "/" + artifact.ArchiveName
}
