package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"echodl/internal/fileutil"
	"echodl/internal/history"
	"echodl/internal/lectures"
	"echodl/internal/logging"
	"echodl/internal/services"
)

// Dependencies wires an Orchestrator. Launcher and History are optional.
type Dependencies struct {
	Resolver     BinaryResolver
	Launcher     DriverLauncher
	Session      Session
	Catalog      Catalog
	Fetcher      Fetcher
	History      History
	SkipExisting bool
}

// Orchestrator runs download batches.
type Orchestrator struct {
	deps   Dependencies
	logger *slog.Logger
}

// New validates deps and returns an orchestrator.
func New(deps Dependencies, logger *slog.Logger) (*Orchestrator, error) {
	switch {
	case deps.Resolver == nil:
		return nil, fmt.Errorf("orchestrator: binary resolver is required")
	case deps.Session == nil:
		return nil, fmt.Errorf("orchestrator: session is required")
	case deps.Catalog == nil:
		return nil, fmt.Errorf("orchestrator: catalog is required")
	case deps.Fetcher == nil:
		return nil, fmt.Errorf("orchestrator: fetcher is required")
	}
	return &Orchestrator{
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "orchestrator"),
	}, nil
}

// DownloadAll resolves the driver, authenticates, lists the course, and
// downloads every lecture inside the request's date range. Failures before
// the per-lecture loop abort the run; failures inside it become outcomes.
func (o *Orchestrator) DownloadAll(ctx context.Context, req Request) (Report, error) {
	report := Report{RunID: uuid.NewString(), Course: strings.TrimSpace(req.Course)}
	if report.Course == "" {
		return report, services.Wrap(services.ErrConfiguration, "orchestrator", "validate", "course identifier is required", nil)
	}
	ctx = services.WithRunID(ctx, report.RunID)
	ctx = services.WithCourse(ctx, report.Course)
	logger := logging.WithContext(ctx, o.logger)

	binary, err := o.deps.Resolver.Resolve(ctx)
	if err != nil {
		return report, err
	}
	logger.Debug("driver resolved", logging.String("binary", binary))

	if o.deps.Launcher != nil {
		svc, err := o.deps.Launcher(ctx, binary)
		if err != nil {
			return report, err
		}
		defer func() {
			if stopErr := svc.Stop(); stopErr != nil {
				logger.Warn("driver stop failed", logging.Error(stopErr))
			}
		}()
	}

	if err := o.authenticate(ctx, req); err != nil {
		return report, err
	}

	all, err := o.deps.Catalog.Lectures(ctx, report.Course)
	if err != nil {
		return report, err
	}
	report.CatalogSize = len(all)
	selected := lectures.Filter(all, req.Range)
	logger.Info("lectures selected",
		logging.Int("catalog", len(all)),
		logging.Int("selected", len(selected)),
		logging.String("after", req.Range.After.Format(lectures.DateLayout)),
		logging.String("before", req.Range.Before.Format(lectures.DateLayout)),
	)

	report.Outcomes = make([]Outcome, 0, len(selected))
	for _, lecture := range selected {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		lectureCtx := services.WithLectureID(ctx, lecture.ID)
		outcome := o.downloadOne(lectureCtx, lecture, req.OutputDir)
		o.record(lectureCtx, report, outcome)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	logger.Info("batch complete",
		logging.Int("succeeded", report.Succeeded()),
		logging.Int("skipped", report.Skipped()),
		logging.Int("failed", report.Failed()),
	)
	return report, nil
}

func (o *Orchestrator) authenticate(ctx context.Context, req Request) error {
	logging.WithContext(ctx, o.logger).Debug("authenticating", logging.Bool("browser_cookies", req.BrowserCookies))
	if req.BrowserCookies {
		_, err := o.deps.Session.ImportBrowserCookies(ctx)
		return err
	}
	return o.deps.Session.Login(ctx, req.Credentials)
}

// downloadOne never returns an error: every failure, panics included, is
// folded into the outcome.
func (o *Orchestrator) downloadOne(ctx context.Context, lecture lectures.Lecture, outputDir string) (outcome Outcome) {
	logger := logging.WithContext(ctx, o.logger)
	outcome = Outcome{Lecture: lecture}

	defer func() {
		if r := recover(); r != nil {
			err := services.Wrap(services.ErrLectureDownload, "download", lecture.ID, "", fmt.Errorf("panic: %v", r))
			outcome = failure(lecture, err)
			logger.Error("lecture download panicked", logging.String("title", lecture.Title), logging.Error(err))
		}
	}()

	if entry, ok := o.previousDownload(ctx, lecture); ok {
		logger.Info("lecture already downloaded",
			logging.String("title", lecture.Title),
			logging.String("path", entry.Path),
		)
		return Outcome{
			Lecture: lecture,
			Status:  StatusSuccess,
			Path:    entry.Path,
			Bytes:   entry.Bytes,
			Skipped: true,
		}
	}

	result, err := o.deps.Fetcher.Fetch(ctx, lecture, outputDir)
	if err != nil {
		wrapped := services.Wrap(services.ErrLectureDownload, "download", lecture.ID, lecture.Title, err)
		logging.WarnWithContext(logger, "lecture download failed", "lecture_failed",
			"the batch continues; rerun later to retry this lecture",
			logging.String("title", lecture.Title),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
		)
		return failure(lecture, wrapped)
	}
	return Outcome{
		Lecture: lecture,
		Status:  StatusSuccess,
		Path:    result.Path,
		Bytes:   result.Bytes,
	}
}

func failure(lecture lectures.Lecture, err error) Outcome {
	return Outcome{
		Lecture: lecture,
		Status:  StatusFailure,
		Reason:  err.Error(),
		Err:     err,
	}
}

func (o *Orchestrator) previousDownload(ctx context.Context, lecture lectures.Lecture) (history.Entry, bool) {
	if !o.deps.SkipExisting || o.deps.History == nil {
		return history.Entry{}, false
	}
	course, _ := services.CourseFromContext(ctx)
	entry, ok, err := o.deps.History.LastSuccess(ctx, course, lecture.ID)
	if err != nil {
		logging.WithContext(ctx, o.logger).Warn("history lookup failed", logging.Error(err))
		return history.Entry{}, false
	}
	if !ok || entry.Path == "" || !fileutil.IsRegularFile(entry.Path) {
		return history.Entry{}, false
	}
	return entry, true
}

func (o *Orchestrator) record(ctx context.Context, report Report, outcome Outcome) {
	if o.deps.History == nil {
		return
	}
	entry := history.Entry{
		RunID:       report.RunID,
		Course:      report.Course,
		LectureID:   outcome.Lecture.ID,
		Title:       outcome.Lecture.Title,
		LectureDate: outcome.Lecture.Day(),
		Status:      history.Status(outcome.Status),
		Path:        outcome.Path,
		Bytes:       outcome.Bytes,
		Reason:      outcome.Reason,
	}
	if err := o.deps.History.Record(ctx, entry); err != nil {
		logging.WithContext(ctx, o.logger).Warn("history write failed", logging.Error(err))
	}
}
