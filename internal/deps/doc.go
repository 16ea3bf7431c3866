// Package deps decides whether the browser driver binary can be used without
// provisioning it first.
//
// A provisioned copy in the bin directory always wins. Otherwise the command
// is looked up on PATH and asked for its version; only a clean exit counts as
// a working system install.
package deps
