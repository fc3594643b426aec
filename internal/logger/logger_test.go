package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"api_key", "abc",
		"Authorization", "Bearer x",
		"task_id", "t-1",
		"user_id", "u-1",
		"dangling",
	})

	assert.Equal(t, []interface{}{
		"api_key", "[REDACTED]",
		"Authorization", "[REDACTED]",
		"task_id", "t-1",
		"user_id", "u-1",
		"dangling",
	}, out)
}
