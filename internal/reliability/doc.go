// Package reliability provides retry policies for the inter-service
// communication layer.
//
// Policies are pluggable via the RetryPolicy interface. ExponentialBackoff is
// the default used by the service client: delay doubles per attempt up to a
// hard cap, and errors can opt out of retries by implementing
// IsRetryable() bool.
package reliability
