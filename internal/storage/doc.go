// Package storage persists plants, pots, care events, reminders, settings
// and notification subscriptions.
//
// Queries are built with squirrel and executed through sqlx, so the same
// repository code serves the embedded SQLite driver and PostgreSQL.
// Instants are stored as unix milliseconds (UTC).
package storage
