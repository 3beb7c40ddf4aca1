// Package config validates environment-sourced connection parameters before
// the publisher and service client are constructed. Validation is
// schema-driven and collects every problem in one pass, so an operator sees
// the full report instead of the first failure.
package config
