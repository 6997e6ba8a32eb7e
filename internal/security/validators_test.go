package security_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damione1/backlog-poker/internal/security"
)

func TestValidateRoomID(t *testing.T) {
	t.Run("accepts a uuid", func(t *testing.T) {
		assert.NoError(t, security.ValidateRoomID(uuid.New().String()))
	})

	t.Run("rejects empty and malformed ids", func(t *testing.T) {
		assert.Error(t, security.ValidateRoomID(""))
		assert.Error(t, security.ValidateRoomID("not-a-uuid"))
		assert.Error(t, security.ValidateRoomID("../../etc/passwd"))
	})
}

func TestValidateParticipantName(t *testing.T) {
	t.Run("accepts plain and accented names", func(t *testing.T) {
		for _, name := range []string{"Alice", "Jean-Pierre", "O'Brien", "Zoë", "user_42", "J. Doe"} {
			got, err := security.ValidateParticipantName(name)
			require.NoError(t, err, "name %q", name)
			assert.Equal(t, name, got)
		}
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		got, err := security.ValidateParticipantName("  Alice  ")

		require.NoError(t, err)
		assert.Equal(t, "Alice", got)
	})

	t.Run("rejects empty and whitespace-only names", func(t *testing.T) {
		_, err := security.ValidateParticipantName("")
		assert.Error(t, err)

		_, err = security.ValidateParticipantName("   ")
		assert.Error(t, err)
	})

	t.Run("rejects names over the length cap", func(t *testing.T) {
		_, err := security.ValidateParticipantName(strings.Repeat("a", security.MaxParticipantNameLength+1))

		assert.Error(t, err)
	})

	t.Run("rejects markup and shell metacharacters", func(t *testing.T) {
		for _, name := range []string{"<script>", "a;b", "a|b", "$(whoami)", "a`b`", "{alice}", "a&b"} {
			_, err := security.ValidateParticipantName(name)
			assert.Error(t, err, "name %q should be rejected", name)
		}
	})

	t.Run("rejects control characters", func(t *testing.T) {
		_, err := security.ValidateParticipantName("ali\x00ce")

		assert.Error(t, err)
	})
}

func TestValidateFeatureName(t *testing.T) {
	t.Run("allows longer names than participants", func(t *testing.T) {
		name := strings.Repeat("a", security.MaxFeatureNameLength)

		got, err := security.ValidateFeatureName(name)

		require.NoError(t, err)
		assert.Equal(t, name, got)
	})

	t.Run("still enforces its own cap", func(t *testing.T) {
		_, err := security.ValidateFeatureName(strings.Repeat("a", security.MaxFeatureNameLength+1))

		assert.Error(t, err)
	})
}

func TestValidateRoomName(t *testing.T) {
	got, err := security.ValidateRoomName("Sprint 12 Planning")

	require.NoError(t, err)
	assert.Equal(t, "Sprint 12 Planning", got)
}
