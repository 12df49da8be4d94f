// Package garden implements the plant, pot, care, settings and
// subscription mutations. Every mutation that changes a reminder input
// reconciles the affected reminders in the same transaction.
package garden
