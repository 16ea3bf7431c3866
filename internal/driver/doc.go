// Package driver provisions and runs the headless browser driver.
//
// Provisioner downloads the pinned release archive for the host platform,
// replaces the bin directory with its contents under an exclusive file lock,
// and marks the binary executable. Bootstrap asks the deps probe whether a
// usable binary already exists and provisions only when it does not (or when
// forced). Launcher starts the resolved binary on a loopback port for the
// duration of a download batch.
package driver
