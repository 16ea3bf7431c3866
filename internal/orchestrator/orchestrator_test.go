package orchestrator_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"echodl/internal/fetch"
	"echodl/internal/history"
	"echodl/internal/lectures"
	"echodl/internal/logging"
	"echodl/internal/orchestrator"
	"echodl/internal/portal"
	"echodl/internal/services"
)

type recorder struct {
	calls []string
}

func (r *recorder) add(call string) { r.calls = append(r.calls, call) }

type fakeResolver struct {
	rec *recorder
	err error
}

func (f *fakeResolver) Resolve(context.Context) (string, error) {
	f.rec.add("resolve")
	if f.err != nil {
		return "", f.err
	}
	return "/opt/bin/chromedriver", nil
}

type fakeService struct{ rec *recorder }

func (s *fakeService) Stop() error {
	s.rec.add("stop")
	return nil
}

type fakeSession struct {
	rec      *recorder
	loginErr error
	creds    portal.Credentials
}

func (s *fakeSession) Login(_ context.Context, creds portal.Credentials) error {
	s.rec.add("login")
	s.creds = creds
	return s.loginErr
}

func (s *fakeSession) ImportBrowserCookies(context.Context) (int, error) {
	s.rec.add("cookies")
	return 2, nil
}

type fakeCatalog struct {
	rec      *recorder
	lectures []lectures.Lecture
	err      error
}

func (c *fakeCatalog) Lectures(_ context.Context, course string) ([]lectures.Lecture, error) {
	c.rec.add("catalog:" + course)
	return c.lectures, c.err
}

type fakeFetcher struct {
	rec     *recorder
	fail    map[string]error
	panicOn map[string]bool
	cancel  context.CancelFunc
}

func (f *fakeFetcher) Fetch(_ context.Context, lecture lectures.Lecture, outputDir string) (fetch.Result, error) {
	f.rec.add("fetch:" + lecture.ID)
	if f.cancel != nil {
		f.cancel()
	}
	if f.panicOn[lecture.ID] {
		panic("parser exploded")
	}
	if err := f.fail[lecture.ID]; err != nil {
		return fetch.Result{}, err
	}
	return fetch.Result{Path: filepath.Join(outputDir, lecture.ID+".mp4"), Bytes: 100}, nil
}

type fakeHistory struct {
	entries  []history.Entry
	previous map[string]history.Entry
}

func (h *fakeHistory) Record(_ context.Context, entry history.Entry) error {
	h.entries = append(h.entries, entry)
	return nil
}

func (h *fakeHistory) LastSuccess(_ context.Context, _ string, lectureID string) (history.Entry, bool, error) {
	entry, ok := h.previous[lectureID]
	return entry, ok, nil
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := lectures.ParseDate(value)
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}

func catalogLectures(t *testing.T) []lectures.Lecture {
	return []lectures.Lecture{
		{ID: "l1", Title: "Week 1", Date: day(t, "2018-03-01"), MediaURL: "https://cdn/l1"},
		{ID: "l2", Title: "Week 2", Date: day(t, "2018-03-08"), MediaURL: "https://cdn/l2"},
		{ID: "l3", Title: "Week 3", Date: day(t, "2018-03-15"), MediaURL: "https://cdn/l3"},
		{ID: "l4", Title: "Week 4", Date: day(t, "2018-03-22"), MediaURL: "https://cdn/l4"},
	}
}

type harness struct {
	rec     *recorder
	session *fakeSession
	catalog *fakeCatalog
	fetcher *fakeFetcher
	history *fakeHistory
	deps    orchestrator.Dependencies
}

func newHarness(t *testing.T) *harness {
	rec := &recorder{}
	h := &harness{
		rec:     rec,
		session: &fakeSession{rec: rec},
		catalog: &fakeCatalog{rec: rec, lectures: catalogLectures(t)},
		fetcher: &fakeFetcher{rec: rec, fail: map[string]error{}, panicOn: map[string]bool{}},
		history: &fakeHistory{previous: map[string]history.Entry{}},
	}
	h.deps = orchestrator.Dependencies{
		Resolver: &fakeResolver{rec: rec},
		Launcher: func(_ context.Context, binary string) (orchestrator.DriverService, error) {
			rec.add("launch:" + binary)
			return &fakeService{rec: rec}, nil
		},
		Session:      h.session,
		Catalog:      h.catalog,
		Fetcher:      h.fetcher,
		History:      h.history,
		SkipExisting: true,
	}
	return h
}

func (h *harness) run(t *testing.T, ctx context.Context, req orchestrator.Request) (orchestrator.Report, error) {
	t.Helper()
	o, err := orchestrator.New(h.deps, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o.DownloadAll(ctx, req)
}

func baseRequest(t *testing.T) orchestrator.Request {
	return orchestrator.Request{
		Course:      "course-1",
		OutputDir:   t.TempDir(),
		Range:       lectures.DefaultRange(),
		Credentials: portal.Credentials{Username: "student", Password: "secret"},
	}
}

func TestDownloadAllRunsStepsInOrder(t *testing.T) {
	h := newHarness(t)
	report, err := h.run(t, context.Background(), baseRequest(t))
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	want := []string{
		"resolve", "launch:/opt/bin/chromedriver", "login", "catalog:course-1",
		"fetch:l1", "fetch:l2", "fetch:l3", "fetch:l4", "stop",
	}
	if strings.Join(h.rec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", h.rec.calls, want)
	}
	if report.RunID == "" || report.Course != "course-1" || report.CatalogSize != 4 {
		t.Fatalf("unexpected report header %+v", report)
	}
	if report.Succeeded() != 4 || report.Failed() != 0 {
		t.Fatalf("succeeded=%d failed=%d", report.Succeeded(), report.Failed())
	}
	if h.session.creds.Username != "student" {
		t.Fatalf("credentials not passed: %+v", h.session.creds)
	}
}

func TestDownloadAllFiltersAndIsolatesFailures(t *testing.T) {
	h := newHarness(t)
	h.fetcher.fail["l2"] = services.Wrap(services.ErrNetwork, "fetch", "request", "404", nil)
	h.fetcher.panicOn["l3"] = true

	req := baseRequest(t)
	req.Range = lectures.DateRange{After: day(t, "2018-03-08"), Before: day(t, "2018-03-22")}
	report, err := h.run(t, context.Background(), req)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if len(report.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(report.Outcomes))
	}
	ids := []string{report.Outcomes[0].Lecture.ID, report.Outcomes[1].Lecture.ID, report.Outcomes[2].Lecture.ID}
	if strings.Join(ids, ",") != "l2,l3,l4" {
		t.Fatalf("outcome order = %v", ids)
	}

	l2 := report.Outcomes[0]
	if l2.Status != orchestrator.StatusFailure || !strings.Contains(l2.Reason, "404") {
		t.Fatalf("unexpected l2 outcome %+v", l2)
	}
	if !errors.Is(l2.Err, services.ErrLectureDownload) || !errors.Is(l2.Err, services.ErrNetwork) {
		t.Fatalf("l2 error lost its markers: %v", l2.Err)
	}
	l3 := report.Outcomes[1]
	if l3.Status != orchestrator.StatusFailure || !strings.Contains(l3.Reason, "parser exploded") {
		t.Fatalf("unexpected l3 outcome %+v", l3)
	}
	if report.Outcomes[2].Status != orchestrator.StatusSuccess {
		t.Fatalf("l4 should succeed after earlier failures: %+v", report.Outcomes[2])
	}
	if report.CatalogSize != 4 || report.Failed() != 2 || report.Succeeded() != 1 {
		t.Fatalf("unexpected counts catalog=%d failed=%d ok=%d", report.CatalogSize, report.Failed(), report.Succeeded())
	}

	if len(h.history.entries) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(h.history.entries))
	}
	if h.history.entries[0].Status != history.StatusFailure || h.history.entries[2].Status != history.StatusSuccess {
		t.Fatalf("unexpected history statuses %+v", h.history.entries)
	}
	if h.history.entries[0].RunID != report.RunID {
		t.Fatal("history entry missing run id")
	}
}

func TestDownloadAllEmptySelection(t *testing.T) {
	h := newHarness(t)
	req := baseRequest(t)
	req.Range = lectures.DateRange{After: day(t, "2019-01-01"), Before: day(t, "2019-12-31")}
	report, err := h.run(t, context.Background(), req)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if len(report.Outcomes) != 0 || report.CatalogSize != 4 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestDownloadAllSkipsPreviousDownloads(t *testing.T) {
	h := newHarness(t)
	existing := filepath.Join(t.TempDir(), "l1.mp4")
	if err := os.WriteFile(existing, []byte("done"), 0o644); err != nil {
		t.Fatal(err)
	}
	h.history.previous["l1"] = history.Entry{LectureID: "l1", Status: history.StatusSuccess, Path: existing, Bytes: 4}
	h.history.previous["l2"] = history.Entry{LectureID: "l2", Status: history.StatusSuccess, Path: filepath.Join(t.TempDir(), "gone.mp4")}

	report, err := h.run(t, context.Background(), baseRequest(t))
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if !report.Outcomes[0].Skipped || report.Outcomes[0].Path != existing {
		t.Fatalf("l1 should be skipped: %+v", report.Outcomes[0])
	}
	if report.Outcomes[1].Skipped {
		t.Fatal("l2 file is gone and must be downloaded again")
	}
	for _, call := range h.rec.calls {
		if call == "fetch:l1" {
			t.Fatal("skipped lecture was fetched")
		}
	}
	if report.Skipped() != 1 || report.Succeeded() != 4 {
		t.Fatalf("skipped=%d succeeded=%d", report.Skipped(), report.Succeeded())
	}
}

func TestDownloadAllSkipDisabled(t *testing.T) {
	h := newHarness(t)
	existing := filepath.Join(t.TempDir(), "l1.mp4")
	if err := os.WriteFile(existing, []byte("done"), 0o644); err != nil {
		t.Fatal(err)
	}
	h.history.previous["l1"] = history.Entry{Path: existing}
	h.deps.SkipExisting = false

	report, err := h.run(t, context.Background(), baseRequest(t))
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if report.Skipped() != 0 {
		t.Fatal("expected no skips when disabled")
	}
}

func TestDownloadAllResolveFailureAbortsBeforeNetwork(t *testing.T) {
	h := newHarness(t)
	h.deps.Resolver = &fakeResolver{rec: h.rec, err: services.Wrap(services.ErrUnsupportedPlatform, "platform", "resolve", "plan9", nil)}

	_, err := h.run(t, context.Background(), baseRequest(t))
	if !errors.Is(err, services.ErrUnsupportedPlatform) {
		t.Fatalf("error = %v, want ErrUnsupportedPlatform", err)
	}
	if strings.Join(h.rec.calls, ",") != "resolve" {
		t.Fatalf("unexpected calls after resolve failure: %v", h.rec.calls)
	}
}

func TestDownloadAllLoginFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.session.loginErr = services.Wrap(services.ErrAuthentication, "portal", "login", "credentials rejected", nil)

	_, err := h.run(t, context.Background(), baseRequest(t))
	if !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("error = %v, want ErrAuthentication", err)
	}
	want := "resolve,launch:/opt/bin/chromedriver,login,stop"
	if strings.Join(h.rec.calls, ",") != want {
		t.Fatalf("calls = %v, want %s", h.rec.calls, want)
	}
	if len(h.history.entries) != 0 {
		t.Fatal("nothing should be recorded for an aborted run")
	}
}

func TestDownloadAllLauncherFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.deps.Launcher = func(context.Context, string) (orchestrator.DriverService, error) {
		return nil, services.Wrap(services.ErrDriverUnavailable, "driver", "start", "exited", nil)
	}
	_, err := h.run(t, context.Background(), baseRequest(t))
	if !errors.Is(err, services.ErrDriverUnavailable) {
		t.Fatalf("error = %v, want ErrDriverUnavailable", err)
	}
	if len(h.rec.calls) != 1 {
		t.Fatalf("unexpected calls %v", h.rec.calls)
	}
}

func TestDownloadAllCatalogFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.catalog.err = services.Wrap(services.ErrNetwork, "catalog", "list", "boom", nil)
	if _, err := h.run(t, context.Background(), baseRequest(t)); !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
}

func TestDownloadAllBrowserCookies(t *testing.T) {
	h := newHarness(t)
	h.deps.Launcher = nil
	req := baseRequest(t)
	req.BrowserCookies = true
	req.Credentials = portal.Credentials{}

	if _, err := h.run(t, context.Background(), req); err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if h.rec.calls[1] != "cookies" {
		t.Fatalf("expected cookie import instead of login, calls = %v", h.rec.calls)
	}
}

func TestDownloadAllStopsOnCancellation(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.fetcher.cancel = cancel

	report, err := h.run(t, ctx, baseRequest(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(report.Outcomes) != 1 {
		t.Fatalf("expected the in-flight lecture only, got %d outcomes", len(report.Outcomes))
	}
}

func TestDownloadAllRequiresCourse(t *testing.T) {
	h := newHarness(t)
	req := baseRequest(t)
	req.Course = "  "
	if _, err := h.run(t, context.Background(), req); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
	if len(h.rec.calls) != 0 {
		t.Fatalf("unexpected calls %v", h.rec.calls)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := orchestrator.New(orchestrator.Dependencies{}, logging.NewNop()); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
