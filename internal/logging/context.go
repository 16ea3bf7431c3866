package logging

import (
	"context"
	"log/slog"

	"echodl/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one orchestration run.
	FieldRunID = "run_id"
	// FieldCourse is the course identifier being processed.
	FieldCourse = "course"
	// FieldLectureID is the lecture currently being handled.
	FieldLectureID = "lecture_id"
	// FieldEventType classifies warnings for log searches.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for the user.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if course, ok := services.CourseFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCourse, course))
	}
	if id, ok := services.LectureIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldLectureID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
