package config

// Kind tells the validator how to interpret a field's raw string value.
type Kind int

const (
	KindString Kind = iota
	KindInt
)

// Field describes one environment variable: whether it must be present, what
// shape its value takes, and what to fall back to when it is absent.
type Field struct {
	Name     string
	Required bool
	Default  string
	Kind     Kind
	Min      int    // KindInt lower bound; ignored when Min == Max == 0
	Max      int    // KindInt upper bound
	Pattern  string // KindString regular expression
	Secret   bool   // redact the value in reports and logs
}

// Schema is the set of fields validated for a service: the common fields every
// service shares plus per-service overrides, matched by field name.
type Schema struct {
	Common   []Field
	Services map[string][]Field
}

// DefaultSchema covers the connection parameters the publisher and service
// client are constructed from.
func DefaultSchema() Schema {
	return Schema{
		Common: []Field{
			{Name: "SERVICE_NAME", Pattern: `^[a-z][a-z0-9-]*$`},
			{Name: "RABBITMQ_HOST", Default: "localhost"},
			{Name: "RABBITMQ_PORT", Kind: KindInt, Default: "5672", Min: 1, Max: 65535},
			{Name: "RABBITMQ_USER", Default: "guest"},
			{Name: "RABBITMQ_PASSWORD", Default: "guest", Secret: true},
			{Name: "EXCHANGE_NAME", Default: "talentsphere.events", Pattern: `^[a-zA-Z0-9._-]+$`},
			{Name: "HTTP_TIMEOUT_MS", Kind: KindInt, Default: "10000", Min: 1, Max: 300000},
			{Name: "MAX_RETRIES", Kind: KindInt, Default: "3", Min: 1, Max: 10},
			{Name: "RETRY_DELAY_MS", Kind: KindInt, Default: "1000", Min: 1, Max: 30000},
			{Name: "JWT_SECRET", Secret: true},
		},
		Services: map[string][]Field{
			// Services that mint or verify tokens cannot run without a secret.
			"auth":    {{Name: "JWT_SECRET", Required: true, Secret: true}},
			"gateway": {{Name: "JWT_SECRET", Required: true, Secret: true}},
		},
	}
}

// FieldsFor merges the common fields with the overrides for serviceName.
// An override with the same name replaces the common field entirely.
func (s Schema) FieldsFor(serviceName string) []Field {
	overrides := make(map[string]Field)
	for _, f := range s.Services[serviceName] {
		overrides[f.Name] = f
	}

	fields := make([]Field, 0, len(s.Common)+len(s.Services[serviceName]))
	seen := make(map[string]struct{}, len(s.Common))
	for _, f := range s.Common {
		if o, ok := overrides[f.Name]; ok {
			f = o
		}
		fields = append(fields, f)
		seen[f.Name] = struct{}{}
	}
	// Service-only fields that don't shadow anything common.
	for _, f := range s.Services[serviceName] {
		if _, dup := seen[f.Name]; !dup {
			fields = append(fields, f)
		}
	}
	return fields
}
