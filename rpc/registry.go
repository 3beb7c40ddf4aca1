package rpc

import (
	"fmt"
	"os"
	"strings"
)

// defaultPorts maps well-known platform services to their conventional local
// ports. Overridable per deployment through <SERVICE>_SERVICE_URL variables.
var defaultPorts = map[string]int{
	"gateway":      8000,
	"auth":         8001,
	"course":       8002,
	"challenge":    8003,
	"user":         8004,
	"assistant":    5005,
	"recruitment":  5006,
	"gamification": 5007,
	"progress":     8080,
}

// DefaultPort is used for service names absent from the port table.
const DefaultPort = 8000

// Registry resolves service names to base URLs. It is an explicit object
// constructed once at process start and injected into clients, not an
// ambient process-wide map.
type Registry struct {
	env         func(string) string
	host        string
	ports       map[string]int
	defaultPort int
}

// RegistryOption configures the Registry.
type RegistryOption func(*Registry)

// WithEnvLookup replaces the environment lookup (tests inject a fake here).
func WithEnvLookup(lookup func(string) string) RegistryOption {
	return func(r *Registry) {
		r.env = lookup
	}
}

// WithDefaultHost sets the host used for port-table fallback URLs.
func WithDefaultHost(host string) RegistryOption {
	return func(r *Registry) {
		r.host = host
	}
}

// WithServicePort adds or overrides a port-table entry.
func WithServicePort(service string, port int) RegistryOption {
	return func(r *Registry) {
		r.ports[service] = port
	}
}

// WithDefaultPort sets the fallback port for unknown services.
func WithDefaultPort(port int) RegistryOption {
	return func(r *Registry) {
		r.defaultPort = port
	}
}

// NewRegistry creates a registry with the platform default port table.
func NewRegistry(options ...RegistryOption) *Registry {
	r := &Registry{
		env:         os.Getenv,
		host:        "localhost",
		ports:       make(map[string]int, len(defaultPorts)),
		defaultPort: DefaultPort,
	}
	for name, port := range defaultPorts {
		r.ports[name] = port
	}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// BaseURL resolves the base URL for a named peer service. Resolution order:
// <SERVICE>_SERVICE_URL environment override, then the port table, then the
// generic default port.
func (r *Registry) BaseURL(serviceName string) string {
	if override := r.env(envKey(serviceName)); override != "" {
		return strings.TrimRight(override, "/")
	}

	port, ok := r.ports[serviceName]
	if !ok {
		port = r.defaultPort
	}
	return fmt.Sprintf("http://%s:%d", r.host, port)
}

// envKey converts a service name to its URL override variable, e.g.
// "course" -> COURSE_SERVICE_URL, "user-profile" -> USER_PROFILE_SERVICE_URL.
func envKey(serviceName string) string {
	upper := strings.ToUpper(strings.ReplaceAll(serviceName, "-", "_"))
	return upper + "_SERVICE_URL"
}
