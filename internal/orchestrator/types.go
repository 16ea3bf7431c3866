package orchestrator

import (
	"context"

	"echodl/internal/fetch"
	"echodl/internal/history"
	"echodl/internal/lectures"
	"echodl/internal/portal"
)

// BinaryResolver yields the driver binary for a run.
type BinaryResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// DriverService is a driver process kept alive for one batch.
type DriverService interface {
	Stop() error
}

// DriverLauncher starts binary for the batch.
type DriverLauncher func(ctx context.Context, binary string) (DriverService, error)

// Session authenticates against the portal.
type Session interface {
	Login(ctx context.Context, creds portal.Credentials) error
	ImportBrowserCookies(ctx context.Context) (int, error)
}

// Catalog lists a course's recordings.
type Catalog interface {
	Lectures(ctx context.Context, course string) ([]lectures.Lecture, error)
}

// Fetcher downloads one lecture.
type Fetcher interface {
	Fetch(ctx context.Context, lecture lectures.Lecture, outputDir string) (fetch.Result, error)
}

// History remembers completed downloads.
type History interface {
	Record(ctx context.Context, entry history.Entry) error
	LastSuccess(ctx context.Context, course, lectureID string) (history.Entry, bool, error)
}

// Request describes one batch.
type Request struct {
	Course      string
	OutputDir   string
	Range       lectures.DateRange
	Credentials portal.Credentials
	// BrowserCookies adopts a local browser session instead of logging in.
	BrowserCookies bool
}

// Status is the result of a single lecture.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Outcome records what happened to one selected lecture.
type Outcome struct {
	Lecture lectures.Lecture
	Status  Status
	Reason  string
	Path    string
	Bytes   int64
	// Skipped marks a success satisfied by an earlier download.
	Skipped bool
	Err     error
}

// Report is the ordered result of a batch, one outcome per selected lecture.
type Report struct {
	RunID       string
	Course      string
	CatalogSize int
	Outcomes    []Outcome
}

// Succeeded counts successful outcomes, skipped ones included.
func (r Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusSuccess {
			n++
		}
	}
	return n
}

// Failed counts failed outcomes.
func (r Report) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Skipped counts outcomes satisfied by earlier downloads.
func (r Report) Skipped() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Skipped {
			n++
		}
	}
	return n
}
