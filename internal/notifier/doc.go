// Package notifier delivers operator messages to the bot admin.
//
// The admin is resolved on every call, so notifications sent before anyone
// has claimed the bot fail with ErrNoAdmin instead of going nowhere.
// Keyed notifications are suppressed while an identical key was sent within
// the dedup window. Every attempt is published as an AdminNotified event.
package notifier
