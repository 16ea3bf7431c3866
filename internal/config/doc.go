// Package config loads, normalizes, and validates echodl configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts and the working-directory-relative bin directory), reads TOML
// files, and applies ECHODL_* environment overrides. Downstream code receives
// absolute paths and the pinned driver version through this one type, so
// tests can redirect every location to a temporary directory.
package config
