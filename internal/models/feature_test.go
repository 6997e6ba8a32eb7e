package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/damione1/backlog-poker/internal/models"
)

func TestFeatureQueue_Current(t *testing.T) {
	t.Run("head of pending is the current feature", func(t *testing.T) {
		q := models.NewFeatureQueue([]models.Feature{{Name: "F1"}, {Name: "F2"}})

		current, ok := q.Current()

		assert.True(t, ok)
		assert.Equal(t, "F1", current.Name)
		assert.Empty(t, current.Priority)
	})

	t.Run("empty queue has no current feature", func(t *testing.T) {
		q := models.NewFeatureQueue(nil)

		_, ok := q.Current()

		assert.False(t, ok)
		assert.Equal(t, 0, q.Remaining())
	})
}

func TestFeatureQueue_Advance(t *testing.T) {
	t.Run("pops the head and finalizes it with the agreed vote", func(t *testing.T) {
		q := models.NewFeatureQueue([]models.Feature{{Name: "F1"}, {Name: "F2"}})

		next, ok, err := q.Advance("5")

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "F2", next.Name)
		assert.Equal(t, []models.Feature{{Name: "F1", Priority: "5"}}, q.FinalBacklog())
	})

	t.Run("advancing the last feature exhausts the queue", func(t *testing.T) {
		q := models.NewFeatureQueue([]models.Feature{{Name: "F1"}})

		_, ok, err := q.Advance("8")

		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 0, q.Remaining())
	})

	t.Run("advancing an empty queue fails", func(t *testing.T) {
		q := models.NewFeatureQueue(nil)

		_, _, err := q.Advance("5")

		assert.ErrorIs(t, err, models.ErrEmptyQueue)
	})

	t.Run("final backlog preserves queue order", func(t *testing.T) {
		q := models.NewFeatureQueue([]models.Feature{{Name: "F1"}, {Name: "F2"}, {Name: "F3"}})

		q.Advance("5")
		q.Advance("8")
		q.Advance("1")

		assert.Equal(t, []models.Feature{
			{Name: "F1", Priority: "5"},
			{Name: "F2", Priority: "8"},
			{Name: "F3", Priority: "1"},
		}, q.FinalBacklog())
	})
}

func TestFeatureQueue_Isolation(t *testing.T) {
	t.Run("queue copies its seed slice", func(t *testing.T) {
		seed := []models.Feature{{Name: "F1"}}
		q := models.NewFeatureQueue(seed)

		seed[0].Name = "mutated"

		current, _ := q.Current()
		assert.Equal(t, "F1", current.Name)
	})

	t.Run("final backlog is a copy", func(t *testing.T) {
		q := models.NewFeatureQueue([]models.Feature{{Name: "F1"}})
		q.Advance("5")

		backlog := q.FinalBacklog()
		backlog[0].Priority = "mutated"

		assert.Equal(t, "5", q.FinalBacklog()[0].Priority)
	})
}
