package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damione1/backlog-poker/internal/models"
)

func TestValidVote(t *testing.T) {
	t.Run("accepts every deck value", func(t *testing.T) {
		for _, v := range models.DeckValues {
			assert.True(t, models.ValidVote(v), "deck value %q should be valid", v)
		}
	})

	t.Run("rejects values outside the deck", func(t *testing.T) {
		for _, v := range []string{"", "7", "21", "coffee", "café", "joker", "?"} {
			assert.False(t, models.ValidVote(v), "%q should be invalid", v)
		}
	})
}

func TestVoteValue_UnmarshalJSON(t *testing.T) {
	t.Run("decodes numeric cards sent as JSON numbers", func(t *testing.T) {
		var msg models.InboundMessage
		require.NoError(t, json.Unmarshal([]byte(`{"type":"vote","player":"Alice","vote":5}`), &msg))

		assert.Equal(t, "5", msg.Vote.String())
	})

	t.Run("decodes string cards and trims whitespace", func(t *testing.T) {
		var msg models.InboundMessage
		require.NoError(t, json.Unmarshal([]byte(`{"type":"vote","player":"Alice","vote":" Café "}`), &msg))

		assert.Equal(t, models.VoteCafe, msg.Vote.String())
	})

	t.Run("rejects structured values", func(t *testing.T) {
		var msg models.InboundMessage
		err := json.Unmarshal([]byte(`{"type":"vote","vote":{"value":5}}`), &msg)

		assert.Error(t, err)
	})
}
