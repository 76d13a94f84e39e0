// Package health implements the deep status probe.
//
// A probe picks a random live stream from the platform's featured-streams
// query and runs it through the full gateway pipeline (token fetch and
// manifest fetch) using a freshly built outbound client. The result is
// stored in a Status that the cheap /status endpoint reads.
//
// Probes run when /truestat is hit and, optionally, on a cron schedule.
// Results can be persisted to SQLite for later inspection with
// "luminous probes".
package health
