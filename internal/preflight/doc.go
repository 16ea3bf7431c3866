// Package preflight provides readiness checks for the filesystem paths and
// the portal that a download depends on.
//
// The status command prints every check. The download command uses
// ResolveOutputDir to fall back to the configured output directory when the
// requested one does not exist, and CheckDirectoryAccess to refuse an
// unwritable destination before any network activity.
package preflight
