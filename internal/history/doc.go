// Package history records the outcome of every lecture download in a SQLite
// database under the state directory.
//
// The download command consults LastSuccess to skip lectures that were
// already fetched, and the history command lists recent entries.
package history
