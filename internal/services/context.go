package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	courseKey    contextKey = "course"
	lectureIDKey contextKey = "lecture_id"
)

// WithRunID annotates context with the orchestration run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCourse annotates context with the course identifier being processed.
func WithCourse(ctx context.Context, course string) context.Context {
	if course == "" {
		return ctx
	}
	return context.WithValue(ctx, courseKey, course)
}

// CourseFromContext returns the course identifier if present.
func CourseFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(courseKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithLectureID annotates context with the lecture currently being downloaded.
func WithLectureID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, lectureIDKey, id)
}

// LectureIDFromContext extracts the lecture identifier if present.
func LectureIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(lectureIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
