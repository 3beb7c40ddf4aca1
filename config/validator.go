package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FieldError reports one invalid or missing environment variable.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Config holds the validated, typed connection parameters a service is
// constructed from. Fields not recognized by the binder stay in Extra as raw
// strings.
type Config struct {
	ServiceName    string
	RabbitHost     string
	RabbitPort     int
	RabbitUser     string
	RabbitPassword string
	ExchangeName   string
	HTTPTimeout    time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	JWTSecret      string
	Extra          map[string]string
}

// AMQPURL assembles the broker URL from the validated host/port/credentials.
func (c *Config) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.RabbitUser, c.RabbitPassword, c.RabbitHost, c.RabbitPort)
}

// Result is the outcome of validating one service's environment. All problems
// are collected in a single pass; nothing panics or fails fast.
type Result struct {
	ServiceName string
	IsValid     bool
	Config      *Config
	Errors      []FieldError
	Warnings    []string
}

// EnvLookup mirrors os.LookupEnv so tests can substitute a fake environment.
type EnvLookup func(string) (string, bool)

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithSchema replaces the default schema.
func WithSchema(schema Schema) ValidatorOption {
	return func(v *Validator) {
		v.schema = schema
	}
}

// WithEnvLookup substitutes the environment source, mainly for tests.
func WithEnvLookup(lookup EnvLookup) ValidatorOption {
	return func(v *Validator) {
		v.env = lookup
	}
}

// WithValidatorLogger sets the logger for validation reporting.
func WithValidatorLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		v.logger = logger
	}
}

// Validator applies a Schema to the process environment.
type Validator struct {
	schema Schema
	env    EnvLookup
	logger *slog.Logger
}

// NewValidator creates a validator over the default schema and the real
// process environment.
func NewValidator(options ...ValidatorOption) *Validator {
	v := &Validator{
		schema: DefaultSchema(),
		env:    os.LookupEnv,
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// Validate checks every schema field for serviceName against the environment.
// Missing required fields and type/range/pattern violations accumulate as
// Errors; absent optional fields fall back to their defaults with a Warning.
// The typed Config is populated from whatever validated cleanly, so a caller
// may still choose to start degraded when IsValid is false.
func (v *Validator) Validate(serviceName string) *Result {
	result := &Result{ServiceName: serviceName}

	if serviceName == "" {
		result.Errors = append(result.Errors, FieldError{
			Field:   "SERVICE_NAME",
			Message: "service name must not be empty",
		})
		return result
	}

	values := make(map[string]string)
	for _, f := range v.schema.FieldsFor(serviceName) {
		raw, ok := v.env(f.Name)
		if !ok || raw == "" {
			if f.Required {
				result.Errors = append(result.Errors, FieldError{
					Field:   f.Name,
					Message: "required but not set",
				})
				continue
			}
			if f.Default == "" {
				continue
			}
			raw = f.Default
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s not set, using default %s", f.Name, displayValue(f, raw)))
		}

		if err := checkField(f, raw); err != nil {
			result.Errors = append(result.Errors, FieldError{Field: f.Name, Message: err.Error()})
			continue
		}
		values[f.Name] = raw
	}

	result.IsValid = len(result.Errors) == 0
	result.Config = bind(serviceName, values)

	if !result.IsValid {
		v.logger.Warn("configuration validation failed",
			"service", serviceName,
			"errors", len(result.Errors),
			"warnings", len(result.Warnings))
	}
	return result
}

func checkField(f Field, raw string) error {
	switch f.Kind {
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("must be an integer, got %q", raw)
		}
		var rules []validation.Rule
		if f.Min != 0 || f.Max != 0 {
			rules = append(rules,
				validation.Min(f.Min),
				validation.Max(f.Max),
			)
		}
		return validation.Validate(n, rules...)
	default:
		if f.Pattern == "" {
			return nil
		}
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("invalid schema pattern: %w", err)
		}
		return validation.Validate(raw,
			validation.Match(re).Error(fmt.Sprintf("must match %s", f.Pattern)))
	}
}

func displayValue(f Field, raw string) string {
	if f.Secret {
		return "(redacted)"
	}
	return raw
}

func bind(serviceName string, values map[string]string) *Config {
	cfg := &Config{
		ServiceName: serviceName,
		Extra:       make(map[string]string),
	}
	for name, val := range values {
		switch name {
		case "SERVICE_NAME":
			cfg.ServiceName = val
		case "RABBITMQ_HOST":
			cfg.RabbitHost = val
		case "RABBITMQ_PORT":
			cfg.RabbitPort, _ = strconv.Atoi(val)
		case "RABBITMQ_USER":
			cfg.RabbitUser = val
		case "RABBITMQ_PASSWORD":
			cfg.RabbitPassword = val
		case "EXCHANGE_NAME":
			cfg.ExchangeName = val
		case "HTTP_TIMEOUT_MS":
			ms, _ := strconv.Atoi(val)
			cfg.HTTPTimeout = time.Duration(ms) * time.Millisecond
		case "MAX_RETRIES":
			cfg.MaxRetries, _ = strconv.Atoi(val)
		case "RETRY_DELAY_MS":
			ms, _ := strconv.Atoi(val)
			cfg.RetryDelay = time.Duration(ms) * time.Millisecond
		case "JWT_SECRET":
			cfg.JWTSecret = val
		default:
			cfg.Extra[name] = val
		}
	}
	return cfg
}
