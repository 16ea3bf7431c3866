package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"echodl/internal/services"
)

// Format names an archive container recognised by its leading bytes.
type Format string

const (
	Unknown Format = ""
	Zip     Format = "zip"
	Tar     Format = "tar"
	TarGzip Format = "tar.gz"
	TarZstd Format = "tar.zst"
)

// Extractor unpacks src into the existing directory dst.
type Extractor func(src, dst string) error

var registry = map[Format]Extractor{
	Zip:     extractZip,
	Tar:     extractTar,
	TarGzip: extractTarGzip,
	TarZstd: extractTarZstd,
}

var (
	zipMagic  = []byte("PK\x03\x04")
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	tarMagic  = []byte("ustar")
)

const (
	tarMagicOffset = 257
	sniffLen       = tarMagicOffset + 8
)

// Formats lists the registered formats in a stable order.
func Formats() []Format {
	formats := make([]Format, 0, len(registry))
	for format := range registry {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

func supported() string {
	names := make([]string, 0, len(registry))
	for _, format := range Formats() {
		names = append(names, string(format))
	}
	return strings.Join(names, ", ")
}

// Detect sniffs the leading bytes of path.
func Detect(path string) (Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return Unknown, services.Wrap(services.ErrFilesystem, "archive", "open", path, err)
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Unknown, services.Wrap(services.ErrFilesystem, "archive", "read header", path, err)
	}
	return sniff(head[:n]), nil
}

func sniff(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return Zip
	case bytes.HasPrefix(head, gzipMagic):
		return TarGzip
	case bytes.HasPrefix(head, zstdMagic):
		return TarZstd
	case len(head) >= tarMagicOffset+len(tarMagic) &&
		bytes.Equal(head[tarMagicOffset:tarMagicOffset+len(tarMagic)], tarMagic):
		return Tar
	default:
		return Unknown
	}
}

// Extract unpacks src into dst using the extractor matching its content.
func Extract(src, dst string) error {
	format, err := Detect(src)
	if err != nil {
		return err
	}
	if format == Unknown {
		return services.Wrap(services.ErrArchiveFormat, "archive", "detect", fmt.Sprintf("unrecognised archive %s (supported: %s)", src, supported()), nil)
	}
	return ExtractAs(format, src, dst)
}

// ExtractAs unpacks src into dst with the extractor registered for format.
// A source that does not match the format fails with ErrArchiveFormat.
func ExtractAs(format Format, src, dst string) error {
	extractor, ok := registry[format]
	if !ok {
		return services.Wrap(services.ErrArchiveFormat, "archive", "lookup", fmt.Sprintf("no extractor for %q (supported: %s)", format, supported()), nil)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return services.Wrap(services.ErrFilesystem, "archive", "create destination", dst, err)
	}
	return extractor(src, dst)
}

func formatError(format Format, src string, err error) error {
	return services.Wrap(services.ErrArchiveFormat, "archive", "extract "+string(format), src, err)
}
