// Package rpc provides the resilient service-to-service HTTP client.
//
// Every inter-service call can fail transiently, so retry, backoff, timeout,
// and correlation tracing live at this one seam instead of being duplicated
// in every domain service. URL resolution goes through an explicit Registry;
// observability consumers subscribe to per-attempt trace events via
// TraceListener; aggregate counters are exposed both as a snapshot and as
// Prometheus collectors.
package rpc
