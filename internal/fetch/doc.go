// Package fetch downloads lecture media into the output directory.
//
// Each download streams through a ".part" file that is renamed into place
// once complete, so an interrupted run never leaves a truncated recording
// under its final name.
package fetch
