// Package orchestrator drives one download batch.
//
// The run resolves the driver binary before any network use, optionally
// starts the driver for the batch, authenticates, lists the course catalog,
// filters it by date range, and downloads the selected lectures one at a
// time. Only the per-lecture step is failure-isolated: each lecture ends as a
// success or a failure with a reason, and the batch continues.
package orchestrator
