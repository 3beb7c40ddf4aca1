// Package events provides the at-least-once topic event publisher.
//
// Publishing is best-effort: a domain service must never fail a
// user-facing request because the event bus is down. When the broker is
// unreachable at startup the publisher runs in degraded (log-only) mode, and
// a publish-time channel error drops that one event without affecting later
// calls. Callers that need delivery guarantees must persist the fact
// themselves before publishing.
package events
