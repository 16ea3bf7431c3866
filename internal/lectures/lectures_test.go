package lectures_test

import (
	"errors"
	"testing"
	"time"

	"echodl/internal/lectures"
	"echodl/internal/services"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := lectures.ParseDate(value)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", value, err)
	}
	return parsed
}

func TestMatchesBoundsAreInclusive(t *testing.T) {
	r := lectures.DateRange{After: date(t, "2018-03-01"), Before: date(t, "2018-03-31")}
	cases := []struct {
		when string
		want bool
	}{
		{"2018-02-28", false},
		{"2018-03-01", true},
		{"2018-03-15", true},
		{"2018-03-31", true},
		{"2018-04-01", false},
	}
	for _, tc := range cases {
		lecture := lectures.Lecture{ID: tc.when, Date: date(t, tc.when)}
		if got := lectures.Matches(lecture, r); got != tc.want {
			t.Fatalf("Matches(%s) = %v, want %v", tc.when, got, tc.want)
		}
	}
}

func TestMatchesComparesCalendarDays(t *testing.T) {
	r := lectures.DateRange{After: date(t, "2018-03-05"), Before: date(t, "2018-03-05")}
	sydney := time.FixedZone("AEDT", 11*60*60)
	evening := lectures.Lecture{Date: time.Date(2018, time.March, 5, 23, 30, 0, 0, sydney)}
	if !lectures.Matches(evening, r) {
		t.Fatal("expected late lecture on the bound day to match")
	}
	morning := lectures.Lecture{Date: time.Date(2018, time.March, 5, 9, 0, 0, 0, time.UTC)}
	if !lectures.Matches(morning, r) {
		t.Fatal("expected lecture with a time component to match its day")
	}
}

func TestInvertedRangeMatchesNothing(t *testing.T) {
	r := lectures.DateRange{After: date(t, "2018-05-01"), Before: date(t, "2018-04-01")}
	all := []lectures.Lecture{{ID: "a", Date: date(t, "2018-04-15")}}
	if got := lectures.Filter(all, r); len(got) != 0 {
		t.Fatalf("expected empty selection, got %v", got)
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	all := []lectures.Lecture{
		{ID: "3", Date: date(t, "2018-03-20")},
		{ID: "1", Date: date(t, "2018-03-02")},
		{ID: "x", Date: date(t, "2019-01-01")},
		{ID: "2", Date: date(t, "2018-03-10")},
	}
	r := lectures.DateRange{After: date(t, "2018-03-01"), Before: date(t, "2018-03-31")}
	got := lectures.Filter(all, r)
	want := []string{"3", "1", "2"}
	if len(got) != len(want) {
		t.Fatalf("Filter returned %d lectures", len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestDefaultRangeMatchesEverything(t *testing.T) {
	r := lectures.DefaultRange()
	for _, when := range []string{"1100-01-01", "1970-01-01", "2018-03-05", "2900-01-01"} {
		if !lectures.Matches(lectures.Lecture{Date: date(t, when)}, r) {
			t.Fatalf("default range rejected %s", when)
		}
	}
}

func TestParseDateRejectsMalformedInput(t *testing.T) {
	for _, value := range []string{"2018-3-5", "05/03/2018", "2018-02-30", "", "yesterday"} {
		if _, err := lectures.ParseDate(value); !errors.Is(err, services.ErrInvalidDateInput) {
			t.Fatalf("ParseDate(%q) error = %v, want ErrInvalidDateInput", value, err)
		}
	}
}

func TestParseRange(t *testing.T) {
	r, err := lectures.ParseRange("2018-03-01", "")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	if r.After != date(t, "2018-03-01") || r.Before != lectures.DefaultRange().Before {
		t.Fatalf("unexpected range %+v", r)
	}
	if _, err := lectures.ParseRange("", "2018-13-01"); !errors.Is(err, services.ErrInvalidDateInput) {
		t.Fatalf("expected ErrInvalidDateInput, got %v", err)
	}
}

func TestLectureDay(t *testing.T) {
	lecture := lectures.Lecture{Date: time.Date(2018, time.March, 5, 14, 0, 0, 0, time.UTC)}
	if lecture.Day() != "2018-03-05" {
		t.Fatalf("Day = %q", lecture.Day())
	}
}
