// Package batch converts many temporally-close single-key lookups into one
// bulk query, bounding both latency (batching window) and worst-case fan-out
// (size cap). It is the N+1 avoidance layer under data-access code: instead
// of querying per row inside a loop, callers Load individual keys and the
// loader issues one bulk fetch per window.
package batch
