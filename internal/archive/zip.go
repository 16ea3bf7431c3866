package archive

import (
	"github.com/klauspost/compress/zip"
)

func extractZip(src, dst string) error {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return formatError(Zip, src, err)
	}
	defer reader.Close()

	if len(reader.File) == 0 {
		return formatError(Zip, src, errEmpty)
	}
	for _, file := range reader.File {
		target, err := entryPath(dst, file.Name)
		if err != nil {
			return formatError(Zip, src, err)
		}
		if file.FileInfo().IsDir() {
			if err := mkdirEntry(target); err != nil {
				return err
			}
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return formatError(Zip, src, err)
		}
		err = writeEntry(target, file.Mode(), rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
