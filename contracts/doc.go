// Package contracts defines the wire-level types shared by publishers and
// consumers of TalentSphere platform events.
//
// The central type is EventEnvelope: a versioned JSON envelope wrapping an
// arbitrary service-defined payload. The event type string doubles as the
// topic routing key, so the constants in this package are both identifiers
// and routing patterns.
package contracts
