package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInClauseQuery(t *testing.T) {
	t.Run("appends a WHERE clause when the base query has none", func(t *testing.T) {
		query, params := InClauseQuery("SELECT id, name FROM users", []string{"u1", "u2"}, "id")

		assert.Equal(t, "SELECT id, name FROM users WHERE id = ANY($1)", query)
		assert.Equal(t, []interface{}{[]string{"u1", "u2"}}, params)
	})

	t.Run("appends AND when the base query already filters", func(t *testing.T) {
		query, params := InClauseQuery("SELECT id FROM courses WHERE published = true", []int{7, 9}, "id")

		assert.Equal(t, "SELECT id FROM courses WHERE published = true AND id = ANY($1)", query)
		assert.Equal(t, []interface{}{[]int{7, 9}}, params)
	})

	t.Run("deduplicates ids before binding", func(t *testing.T) {
		_, params := InClauseQuery("SELECT id FROM users", []string{"a", "b", "a", "a"}, "id")

		assert.Equal(t, []interface{}{[]string{"a", "b"}}, params)
	})
}

func TestDedup(t *testing.T) {
	t.Run("preserves first-seen order", func(t *testing.T) {
		assert.Equal(t, []int{3, 1, 2}, Dedup([]int{3, 1, 3, 2, 1}))
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, Dedup([]string{}))
	})
}
