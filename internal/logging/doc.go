// Package logging assembles structured slog loggers and formatting helpers used
// across echodl.
//
// It owns the console and JSON handlers, routes a JSON copy of every record to
// the log file under the state directory, and exposes context-aware helpers so
// pipeline code can tag log lines with run, course, and lecture identifiers.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
