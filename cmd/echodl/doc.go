// Package main hosts the echodl CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration lazily, builds the logger,
// and hands each invocation to the internal packages: driver provisioning,
// the portal session, and the download orchestrator. Commands stay thin and
// only translate flags into requests and results into tables.
package main
