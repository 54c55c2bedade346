// Package scheduler fires persisted jobs at their computed times.
//
// The scheduler owns no job state: every job definition lives in the
// JobStore, and each tick scans for active jobs whose next_run has
// arrived. Restarting the process therefore recovers all scheduled work
// from storage on the first scan.
//
// # Triggers
//
// Two trigger types exist:
//
//   - cron: recurring, from a closed grammar of daily (at HH:MM UTC),
//     weekly (Monday at HH:MM) and monthly (day 1 at HH:MM)
//   - at: a single fire at a fixed instant, never rescheduled
//
// # Dispatch
//
// Due jobs run in their own goroutines, bounded per job id by a weighted
// semaphore. A slow run that overlaps its next fire occupies a slot; when
// all slots are taken the fire is skipped and retried on a later scan.
// Work function errors and panics are contained per invocation, recorded
// in the execution log, and never stop the loop.
//
// After every fire the job's status and next_run change together in one
// store update: cron jobs stay active with a fresh next_run even when the
// run failed, at jobs become completed or error.
//
// # Delivery Contract
//
// Delivery is at-least-once. A crash between invocation and the run
// record leaves next_run in the past, so the job fires again on restart.
// Work functions must tolerate re-invocation.
package scheduler
