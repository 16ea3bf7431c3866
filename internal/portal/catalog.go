package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gocolly/colly"

	"echodl/internal/lectures"
	"echodl/internal/logging"
	"echodl/internal/services"
)

type syllabusResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    []syllabusEntry `json:"data"`
}

type syllabusEntry struct {
	Lesson syllabusLesson `json:"lesson"`
}

type syllabusLesson struct {
	Lesson struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Timing struct {
			Start string `json:"start"`
		} `json:"timing"`
	} `json:"lesson"`
	StartTimeUTC string         `json:"startTimeUTC"`
	IsFuture     bool           `json:"isFuture"`
	HasContent   bool           `json:"hasContent"`
	Video        *syllabusVideo `json:"video"`
}

type syllabusVideo struct {
	Media struct {
		ID    string `json:"id"`
		Media struct {
			Current struct {
				PrimaryFiles []primaryFile `json:"primaryFiles"`
			} `json:"current"`
		} `json:"media"`
	} `json:"media"`
}

type primaryFile struct {
	S3URL  string `json:"s3Url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// contextTransport binds every collector request to ctx.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// SyllabusURL is the catalog endpoint for course.
func (c *Client) SyllabusURL(course string) string {
	return c.BaseURL() + "/section/" + url.PathEscape(course) + "/syllabus"
}

// Lectures lists every recording of course in catalog order. Lessons that
// are scheduled in the future or carry no content are not recordings and are
// left out.
func (c *Client) Lectures(ctx context.Context, course string) ([]lectures.Lecture, error) {
	course = strings.TrimSpace(course)
	if course == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "list", "course identifier is required", nil)
	}
	logger := logging.WithContext(ctx, c.logger)
	target := c.SyllabusURL(course)

	collector := colly.NewCollector(colly.AllowURLRevisit())
	collector.SetCookieJar(c.jar)
	collector.SetRequestTimeout(c.timeout)
	collector.WithTransport(&contextTransport{ctx: ctx, base: http.DefaultTransport})
	if c.userAgent != "" {
		collector.UserAgent = c.userAgent
	}
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json")
	})

	var (
		syllabus  syllabusResponse
		decodeErr error
		htmlPage  bool
	)
	collector.OnResponse(func(r *colly.Response) {
		if r.Headers != nil && strings.Contains(r.Headers.Get("Content-Type"), "text/html") {
			htmlPage = true
			return
		}
		decodeErr = json.Unmarshal(r.Body, &syllabus)
	})

	logger.Debug("fetching syllabus", logging.String("url", target))
	if err := collector.Visit(target); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classifyVisitError(target, err)
	}
	if htmlPage {
		return nil, services.Wrap(services.ErrAuthentication, "catalog", "list", "portal answered with a web page; the session is not authenticated", nil)
	}
	if decodeErr != nil {
		return nil, services.Wrap(services.ErrNetwork, "catalog", "decode syllabus", target, decodeErr)
	}
	if syllabus.Status != "" && !strings.EqualFold(syllabus.Status, "ok") {
		return nil, services.Wrap(services.ErrNetwork, "catalog", "list", fmt.Sprintf("syllabus status %q: %s", syllabus.Status, syllabus.Message), nil)
	}

	all := make([]lectures.Lecture, 0, len(syllabus.Data))
	for _, entry := range syllabus.Data {
		lecture, ok, reason := c.toLecture(entry.Lesson)
		if !ok {
			logger.Debug("skipping lesson",
				logging.String("lesson_id", entry.Lesson.Lesson.ID),
				logging.String("reason", reason),
			)
			continue
		}
		all = append(all, lecture)
	}
	logger.Info("catalog loaded",
		logging.Int("lessons", len(syllabus.Data)),
		logging.Int("recordings", len(all)),
	)
	return all, nil
}

// classifyVisitError maps collector failures to markers. The collector reports
// HTTP failures as the bare status text.
func classifyVisitError(target string, err error) error {
	switch err.Error() {
	case http.StatusText(http.StatusUnauthorized), http.StatusText(http.StatusForbidden):
		return services.Wrap(services.ErrAuthentication, "catalog", "list", target+": session rejected", err)
	}
	return services.Wrap(services.ErrNetwork, "catalog", "list", target, err)
}

func (c *Client) toLecture(lesson syllabusLesson) (lectures.Lecture, bool, string) {
	if lesson.IsFuture {
		return lectures.Lecture{}, false, "scheduled in the future"
	}
	if !lesson.HasContent || lesson.Video == nil {
		return lectures.Lecture{}, false, "no recording"
	}
	when, err := lessonTime(lesson)
	if err != nil {
		c.logger.Debug("lesson has no usable start time",
			logging.String("lesson_id", lesson.Lesson.ID),
			logging.String("date", lectures.Undated.Format(lectures.DateLayout)),
			logging.Error(err),
		)
		when = lectures.Undated
	}
	mediaURL := bestPrimaryFile(lesson.Video.Media.Media.Current.PrimaryFiles)
	if mediaURL == "" {
		if lesson.Video.Media.ID == "" {
			return lectures.Lecture{}, false, "no media"
		}
		mediaURL = c.resolve("/media/" + url.PathEscape(lesson.Video.Media.ID) + "/download")
	}
	id := lesson.Lesson.ID
	if id == "" {
		id = lesson.Video.Media.ID
	}
	title := strings.TrimSpace(lesson.Lesson.Name)
	if title == "" {
		title = "Lecture"
	}
	return lectures.Lecture{
		ID:       id,
		Title:    title,
		Date:     when,
		MediaURL: mediaURL,
	}, true, ""
}

func lessonTime(lesson syllabusLesson) (time.Time, error) {
	for _, candidate := range []string{lesson.StartTimeUTC, lesson.Lesson.Timing.Start} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if parsed, err := dateparse.ParseAny(candidate); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("no usable start time")
}

// bestPrimaryFile picks the widest rendition.
func bestPrimaryFile(files []primaryFile) string {
	best := ""
	bestWidth := -1
	for _, file := range files {
		if strings.TrimSpace(file.S3URL) == "" {
			continue
		}
		if file.Width > bestWidth {
			best = file.S3URL
			bestWidth = file.Width
		}
	}
	return best
}
