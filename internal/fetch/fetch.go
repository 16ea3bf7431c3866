package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"echodl/internal/config"
	"echodl/internal/fileutil"
	"echodl/internal/lectures"
	"echodl/internal/logging"
	"echodl/internal/progress"
	"echodl/internal/services"
)

const (
	defaultHeaderTimeout = 30 * time.Second
	defaultExtension     = ".mp4"
)

// Result describes a completed download.
type Result struct {
	Path  string
	Bytes int64
}

// Fetcher streams lecture media to disk.
type Fetcher struct {
	// Progress receives a progress bar per download when it is a terminal.
	Progress io.Writer

	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// New returns a fetcher that shares session's cookie jar. Transfers have a
// response header timeout but no overall deadline.
func New(session *http.Client, cfg *config.Config, logger *slog.Logger) *Fetcher {
	headerTimeout := cfg.DownloadHeaderTimeout()
	if headerTimeout <= 0 {
		headerTimeout = defaultHeaderTimeout
	}
	client := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: headerTimeout,
		},
	}
	if session != nil {
		client.Jar = session.Jar
	}
	return &Fetcher{
		Progress:  os.Stderr,
		client:    client,
		userAgent: cfg.Portal.UserAgent,
		logger:    logging.NewComponentLogger(logger, "fetch"),
	}
}

// Fetch downloads lecture into outputDir and returns where it landed.
func (f *Fetcher) Fetch(ctx context.Context, lecture lectures.Lecture, outputDir string) (Result, error) {
	if strings.TrimSpace(lecture.MediaURL) == "" {
		return Result{}, services.Wrap(services.ErrNetwork, "fetch", "validate", "lecture has no media url", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lecture.MediaURL, nil)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNetwork, "fetch", "build request", lecture.MediaURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "video/mp4,video/*;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNetwork, "fetch", "request", lecture.MediaURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, services.Wrap(services.ErrNetwork, "fetch", "request", fmt.Sprintf("%s returned %s", lecture.MediaURL, resp.Status), nil)
	}

	target := targetPath(outputDir, lecture, extension(lecture.MediaURL, resp.Header.Get("Content-Type")))
	logging.WithContext(ctx, f.logger).Info("downloading lecture",
		logging.String("title", lecture.Title),
		logging.String("path", target),
		logging.String("size", progress.Bytes(resp.ContentLength)),
	)

	bar := progress.New(f.Progress, resp.ContentLength, lecture.Day())
	reader := &readTracker{r: resp.Body}
	written, err := fileutil.WriteAtomic(target, io.TeeReader(reader, bar), 0o644)
	_ = bar.Finish()
	if err != nil {
		if reader.err != nil {
			return Result{}, services.Wrap(services.ErrNetwork, "fetch", "transfer", lecture.MediaURL, err)
		}
		return Result{}, services.Wrap(services.ErrFilesystem, "fetch", "write", target, err)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		_ = os.Remove(target)
		return Result{}, services.Wrap(services.ErrNetwork, "fetch", "transfer", fmt.Sprintf("short body: %d of %d bytes", written, resp.ContentLength), nil)
	}
	return Result{Path: target, Bytes: written}, nil
}

type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(b []byte) (int, error) {
	n, err := t.r.Read(b)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}

// FileName builds "<YYYY-MM-DD> - <title><ext>" with the title normalised to
// NFC and stripped of characters that are unsafe in file names.
func FileName(lecture lectures.Lecture, ext string) string {
	title := SanitizeTitle(lecture.Title)
	if title == "" {
		title = SanitizeTitle(lecture.ID)
	}
	if title == "" {
		title = "lecture"
	}
	return lecture.Day() + " - " + title + ext
}

// UniqueFileName is FileName with the lecture ID appended, for lectures whose
// plain name is already taken.
func UniqueFileName(lecture lectures.Lecture, ext string) string {
	base := FileName(lecture, "")
	id := SanitizeTitle(lecture.ID)
	if id == "" {
		return base + ext
	}
	return base + " [" + id + "]" + ext
}

// targetPath never returns an existing file that could belong to another
// lecture: the plain name is used only while it is free, otherwise the
// ID-qualified name, which only this lecture writes.
func targetPath(outputDir string, lecture lectures.Lecture, ext string) string {
	plain := filepath.Join(outputDir, FileName(lecture, ext))
	if _, err := os.Lstat(plain); errors.Is(err, fs.ErrNotExist) {
		return plain
	}
	return filepath.Join(outputDir, UniqueFileName(lecture, ext))
}

// SanitizeTitle normalises title for use inside a file name.
func SanitizeTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return ' '
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		default:
			return r
		}
	}, norm.NFC.String(title))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.Trim(cleaned, " .")
}

func extension(rawURL, contentType string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(parsed.Path)); isMediaExt(ext) {
			return ext
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "video/mp4":
			return ".mp4"
		case "audio/mp4", "audio/m4a", "audio/x-m4a":
			return ".m4a"
		case "video/webm":
			return ".webm"
		}
	}
	return defaultExtension
}

func isMediaExt(ext string) bool {
	switch ext {
	case ".mp4", ".m4v", ".m4a", ".mov", ".webm", ".mp3":
		return true
	default:
		return false
	}
}
