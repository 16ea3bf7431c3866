// Package services defines shared utilities consumed by the download pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that tag failures with the
//     kind the CLI reports (unsupported platform, network, archive format,
//     filesystem, invalid date, lecture download, authentication).
//   - Context helpers that stamp run IDs, course IDs, and lecture IDs for
//     logging.
//
// Only ErrLectureDownload is recoverable: the orchestrator converts it into a
// report entry. Every other marker aborts the run.
package services
