package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrNetwork             = errors.New("network error")
	ErrArchiveFormat       = errors.New("archive format error")
	ErrFilesystem          = errors.New("filesystem error")
	ErrInvalidDateInput    = errors.New("invalid date input")
	ErrLectureDownload     = errors.New("lecture download error")
	ErrAuthentication      = errors.New("authentication error")
	ErrConfiguration       = errors.New("configuration error")
	ErrDriverUnavailable   = errors.New("driver unavailable")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFilesystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short label for the marker carried by err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedPlatform):
		return "unsupported_platform"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrArchiveFormat):
		return "archive_format"
	case errors.Is(err, ErrFilesystem):
		return "filesystem"
	case errors.Is(err, ErrInvalidDateInput):
		return "invalid_date"
	case errors.Is(err, ErrLectureDownload):
		return "lecture_download"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrDriverUnavailable):
		return "driver_unavailable"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
