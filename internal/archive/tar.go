package archive

import (
	"archive/tar"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var errEmpty = errors.New("archive has no entries")

func extractTar(src, dst string) error {
	file, err := os.Open(src)
	if err != nil {
		return formatError(Tar, src, err)
	}
	defer file.Close()
	return untar(Tar, src, file, dst)
}

func extractTarGzip(src, dst string) error {
	file, err := os.Open(src)
	if err != nil {
		return formatError(TarGzip, src, err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return formatError(TarGzip, src, err)
	}
	defer gz.Close()
	return untar(TarGzip, src, gz, dst)
}

func extractTarZstd(src, dst string) error {
	file, err := os.Open(src)
	if err != nil {
		return formatError(TarZstd, src, err)
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return formatError(TarZstd, src, err)
	}
	defer decoder.Close()
	return untar(TarZstd, src, decoder, dst)
}

// untar fails on a header error or when no entries were read, so a
// mismatched container never produces an empty install.
func untar(format Format, src string, r io.Reader, dst string) error {
	tr := tar.NewReader(r)
	entries := 0
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return formatError(format, src, err)
		}
		entries++

		target, err := entryPath(dst, header.Name)
		if err != nil {
			return formatError(format, src, err)
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := mkdirEntry(target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, header.FileInfo().Mode(), tr); err != nil {
				return err
			}
		default:
			// links and devices are not part of driver archives
		}
	}
	if entries == 0 {
		return formatError(format, src, errEmpty)
	}
	return nil
}
