package history_test

import (
	"context"
	"testing"
	"time"

	"echodl/internal/history"
	"echodl/internal/testsupport"
)

func TestRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	entries := []history.Entry{
		{RunID: "run-1", Course: "c1", LectureID: "l1", Title: "Intro", LectureDate: "2018-03-01", Status: history.StatusSuccess, Path: "/out/a.mp4", Bytes: 42},
		{RunID: "run-1", Course: "c1", LectureID: "l2", Title: "Week 2", LectureDate: "2018-03-08", Status: history.StatusFailure, Reason: "404"},
		{RunID: "run-2", Course: "c2", LectureID: "l9", Title: "Other", LectureDate: "2018-03-09", Status: history.StatusSuccess},
	}
	for _, entry := range entries {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := store.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].LectureID != "l9" {
		t.Fatalf("expected newest first, got %s", all[0].LectureID)
	}

	course, err := store.List(ctx, "c1", 1)
	if err != nil {
		t.Fatalf("List course: %v", err)
	}
	if len(course) != 1 || course[0].LectureID != "l2" {
		t.Fatalf("unexpected course listing %+v", course)
	}
	if course[0].Status != history.StatusFailure || course[0].Reason != "404" || course[0].Path != "" {
		t.Fatalf("failure entry did not round-trip: %+v", course[0])
	}
	if course[0].RecordedAt.IsZero() || time.Since(course[0].RecordedAt) > time.Minute {
		t.Fatalf("unexpected recorded_at %v", course[0].RecordedAt)
	}
}

func TestLastSuccessIgnoresFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	if err := store.Record(ctx, history.Entry{RunID: "r1", Course: "c1", LectureID: "l1", Title: "Intro", LectureDate: "2018-03-01", Status: history.StatusSuccess, Path: "/out/first.mp4", Bytes: 10}); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, history.Entry{RunID: "r2", Course: "c1", LectureID: "l1", Title: "Intro", LectureDate: "2018-03-01", Status: history.StatusFailure, Reason: "timeout"}); err != nil {
		t.Fatal(err)
	}

	entry, ok, err := store.LastSuccess(ctx, "c1", "l1")
	if err != nil {
		t.Fatalf("LastSuccess: %v", err)
	}
	if !ok {
		t.Fatal("expected a success entry")
	}
	if entry.RunID != "r1" || entry.Path != "/out/first.mp4" || entry.Bytes != 10 {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if _, ok, err := store.LastSuccess(ctx, "c1", "missing"); err != nil || ok {
		t.Fatalf("expected no entry, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.LastSuccess(ctx, "c2", "l1"); err != nil || ok {
		t.Fatalf("expected course scoping, got ok=%v err=%v", ok, err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Record(ctx, history.Entry{RunID: "r1", Course: "c1", LectureID: "l1", Title: "Intro", LectureDate: "2018-03-01", Status: history.StatusSuccess}); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second := testsupport.MustOpenHistory(t, cfg)
	entries, err := second.List(ctx, "c1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected persisted entry, got %d", len(entries))
	}
	if second.Path() != cfg.HistoryPath() {
		t.Fatalf("Path = %q", second.Path())
	}
}
