// Package scheduler triggers recurring jobs from cron or interval specs.
//
// Each job runs in its own goroutine with a per-run timeout. A run that
// fires while the previous one is still in flight is skipped, so at most
// one run of a job is active at a time. Panics are recovered and counted
// as failures.
package scheduler
