package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeEnv(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}

func TestRegistry(t *testing.T) {
	t.Run("env override wins over port table", func(t *testing.T) {
		r := NewRegistry(WithEnvLookup(fakeEnv(map[string]string{
			"COURSE_SERVICE_URL": "https://course.internal.example.com",
		})))

		assert.Equal(t, "https://course.internal.example.com", r.BaseURL("course"))
	})

	t.Run("trailing slash in override is trimmed", func(t *testing.T) {
		r := NewRegistry(WithEnvLookup(fakeEnv(map[string]string{
			"AUTH_SERVICE_URL": "http://auth:8001/",
		})))

		assert.Equal(t, "http://auth:8001", r.BaseURL("auth"))
	})

	t.Run("dashes map to underscores in the env key", func(t *testing.T) {
		r := NewRegistry(WithEnvLookup(fakeEnv(map[string]string{
			"USER_PROFILE_SERVICE_URL": "http://profiles:9000",
		})))

		assert.Equal(t, "http://profiles:9000", r.BaseURL("user-profile"))
	})

	t.Run("known services resolve from the port table", func(t *testing.T) {
		r := NewRegistry(WithEnvLookup(fakeEnv(nil)))

		assert.Equal(t, "http://localhost:8001", r.BaseURL("auth"))
		assert.Equal(t, "http://localhost:8002", r.BaseURL("course"))
		assert.Equal(t, "http://localhost:5007", r.BaseURL("gamification"))
	})

	t.Run("unknown services fall back to the generic default port", func(t *testing.T) {
		r := NewRegistry(WithEnvLookup(fakeEnv(nil)))

		assert.Equal(t, "http://localhost:8000", r.BaseURL("does-not-exist"))
	})

	t.Run("options override host and ports", func(t *testing.T) {
		r := NewRegistry(
			WithEnvLookup(fakeEnv(nil)),
			WithDefaultHost("svc.cluster.local"),
			WithServicePort("billing", 7000),
			WithDefaultPort(9999),
		)

		assert.Equal(t, "http://svc.cluster.local:7000", r.BaseURL("billing"))
		assert.Equal(t, "http://svc.cluster.local:9999", r.BaseURL("unknown"))
	})
}
