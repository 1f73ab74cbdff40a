// Package poller drives the manual-search status loop for searchwatch.
//
// This package is internal to searchwatch. Each watched episode gets its own
// [Loop], which asks the Medusa server whether a manual search has progressed,
// adjusts its cadence from the reported [Result] and reschedules itself until
// the search finishes. A [Scheduler] owns one loop per episode and fans their
// updates into a single channel.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper bound to the Medusa base URL
//   - [Loop]: Per-episode poll loop controller (tick, run, stop, force search)
//   - [Scheduler]: Owns the loops and their lifecycle
//   - [Update]: Outcome of one tick
//
// Users of the searchwatch library should not need to interact with this
// package directly. Configuration is done through the main searchwatch package.
package poller
