package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventEnvelope(t *testing.T) {
	t.Run("assigns id version and timestamp", func(t *testing.T) {
		before := time.Now().UTC()
		env, err := NewEventEnvelope(CourseCreated, "course-service", map[string]interface{}{
			"courseId": "c1",
			"price":    10,
		})
		require.NoError(t, err)

		assert.NotEmpty(t, env.EventID)
		assert.Equal(t, CourseCreated, env.EventType)
		assert.Equal(t, EventVersion, env.EventVersion)
		assert.Equal(t, "course-service", env.Source)
		assert.False(t, env.Timestamp.Before(before))
	})

	t.Run("successive envelopes get distinct ids but identical type and data", func(t *testing.T) {
		payload := map[string]string{"courseId": "c1"}

		first, err := NewEventEnvelope(CourseCreated, "course-service", payload)
		require.NoError(t, err)
		second, err := NewEventEnvelope(CourseCreated, "course-service", payload)
		require.NoError(t, err)

		assert.NotEqual(t, first.EventID, second.EventID)
		assert.Equal(t, first.EventType, second.EventType)
		assert.JSONEq(t, string(first.Data), string(second.Data))
	})

	t.Run("applies options", func(t *testing.T) {
		env, err := NewEventEnvelope(UserRegistered, "auth-service", nil,
			WithEnvelopeCorrelationID("abc"),
			WithEnvelopeUserID("u42"),
		)
		require.NoError(t, err)

		assert.Equal(t, "abc", env.CorrelationID)
		assert.Equal(t, "u42", env.UserID)
	})

	t.Run("rejects unserializable payload", func(t *testing.T) {
		_, err := NewEventEnvelope(CourseCreated, "course-service", make(chan int))
		require.Error(t, err)

		var serErr *SerializationError
		assert.ErrorAs(t, err, &serErr)
		assert.Equal(t, CourseCreated, serErr.EventType)
	})
}

func TestEnvelopeWireFormat(t *testing.T) {
	env, err := NewEventEnvelope(CourseCreated, "course-service", map[string]interface{}{
		"courseId": "c1",
	}, WithEnvelopeCorrelationID("corr-1"))
	require.NoError(t, err)

	body, err := json.Marshal(env)
	require.NoError(t, err)

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &wire))

	assert.Equal(t, env.EventID, wire["eventId"])
	assert.Equal(t, "course.created", wire["eventType"])
	assert.Equal(t, "v1", wire["eventVersion"])
	assert.Equal(t, "course-service", wire["source"])
	assert.Equal(t, "corr-1", wire["correlationId"])
	assert.Contains(t, wire, "timestamp")

	data, ok := wire["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "c1", data["courseId"])
}

func TestDecodeData(t *testing.T) {
	type coursePayload struct {
		CourseID string `json:"courseId"`
		Price    int    `json:"price"`
	}

	env, err := NewEventEnvelope(CourseCreated, "course-service", coursePayload{CourseID: "c1", Price: 10})
	require.NoError(t, err)

	var decoded coursePayload
	require.NoError(t, env.DecodeData(&decoded))
	assert.Equal(t, "c1", decoded.CourseID)
	assert.Equal(t, 10, decoded.Price)
}
