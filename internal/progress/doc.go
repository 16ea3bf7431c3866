// Package progress draws transfer progress bars on interactive terminals and
// formats byte counts for reports.
package progress
