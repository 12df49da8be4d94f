// Package notifier delivers reminder messages to subscriptions.
//
// # Routing
//
// Each subscription names a channel ("telegram", "webhook"). The Service
// routes a delivery to the Dispatcher registered for that channel and
// reports success as a bool. Failures are logged, counted, and published on
// the event bus; they never propagate to the caller.
//
// # Throttling
//
// Deliveries share one token-bucket limiter. Each channel has its own
// circuit breaker so a dead webhook host does not slow Telegram down.
// Transient failures are retried with jittered exponential backoff inside a
// single Deliver call.
//
// # History
//
// The service keeps a small in-memory history of recent deliveries for the
// CLI and the ops endpoint.
package notifier
