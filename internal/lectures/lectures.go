package lectures

import (
	"fmt"
	"strings"
	"time"

	"echodl/internal/services"
)

// DateLayout is the accepted form of date arguments.
const DateLayout = "2006-01-02"

// Lecture is one recording listed by the portal catalog.
type Lecture struct {
	ID       string
	Title    string
	Date     time.Time
	MediaURL string
}

// Day returns the lecture's calendar date as YYYY-MM-DD.
func (l Lecture) Day() string {
	return l.Date.Format(DateLayout)
}

// DateRange selects lectures by calendar day. Both bounds are inclusive and
// After <= Before is not enforced; an inverted range matches nothing.
type DateRange struct {
	After  time.Time
	Before time.Time
}

var (
	defaultAfter  = time.Date(1100, time.January, 1, 0, 0, 0, 0, time.UTC)
	defaultBefore = time.Date(2900, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Undated is the date given to recordings the portal lists without a start
// time. DefaultRange still selects them.
var Undated = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultRange matches every lecture the portal could plausibly list.
func DefaultRange() DateRange {
	return DateRange{After: defaultAfter, Before: defaultBefore}
}

// ParseDate parses a YYYY-MM-DD argument.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	parsed, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return time.Time{}, services.Wrap(
			services.ErrInvalidDateInput,
			"dates",
			"parse",
			fmt.Sprintf("%q is not a YYYY-MM-DD date", value),
			err,
		)
	}
	return parsed, nil
}

// ParseRange builds a range from optional after/before arguments; empty
// values keep the defaults.
func ParseRange(after, before string) (DateRange, error) {
	r := DefaultRange()
	if strings.TrimSpace(after) != "" {
		parsed, err := ParseDate(after)
		if err != nil {
			return DateRange{}, err
		}
		r.After = parsed
	}
	if strings.TrimSpace(before) != "" {
		parsed, err := ParseDate(before)
		if err != nil {
			return DateRange{}, err
		}
		r.Before = parsed
	}
	return r, nil
}

// day truncates t to its calendar date in its own location.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Matches reports whether the lecture's date lies within r.
func Matches(lecture Lecture, r DateRange) bool {
	d := day(lecture.Date)
	return !d.Before(day(r.After)) && !d.After(day(r.Before))
}

// Filter returns the lectures within r in their original order.
func Filter(all []Lecture, r DateRange) []Lecture {
	selected := make([]Lecture, 0, len(all))
	for _, lecture := range all {
		if Matches(lecture, r) {
			selected = append(selected, lecture)
		}
	}
	return selected
}
