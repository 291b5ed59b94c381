package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"provider", "openai",
		"api_key", "sk-live-123",
		"JWT_SECRET", "s3cr3t",
		"Authorization", "Bearer abc",
		"dangling",
	})

	assert.Equal(t, []interface{}{
		"provider", "openai",
		"api_key", "[REDACTED]",
		"JWT_SECRET", "[REDACTED]",
		"Authorization", "[REDACTED]",
		"dangling",
	}, out)
}

func TestNopLoggerIsUsable(t *testing.T) {
	l := Nop().With("service", "Test")
	l.Info("hello", "k", 1)
	l.Sync()
}
