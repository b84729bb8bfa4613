// Package scheduler runs named jobs on cron triggers in a configurable
// timezone.
//
// Jobs are registered by name; registering a name again replaces the
// previous trigger. Each run gets its own context with the job timeout,
// panics are recovered and a run that is still in progress causes the
// next trigger of the same job to be skipped.
package scheduler
