package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Illyarb/Excalibur/internal/domain"
)

func TestNewCardDefaults(t *testing.T) {
	s := NewFSRS(0.9)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	card := s.NewCard(now)
	assert.True(t, card.Due.Equal(now))
	assert.Equal(t, domain.StateNew, card.State)
	assert.Zero(t, card.Reps)
	assert.Zero(t, card.Lapses)
	assert.Nil(t, card.LastReview)
}

func TestAdvanceFirstReview(t *testing.T) {
	s := NewFSRS(0.9)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	card := s.NewCard(now)
	card.ID = "card-1"
	card.Tags = []string{"math"}

	updated, event := s.Advance(card, domain.Good, now)

	assert.True(t, updated.Due.After(now), "new due must be in the future")
	assert.Equal(t, 1, updated.Reps)
	assert.Zero(t, updated.ElapsedDays, "no prior review means zero elapsed days")
	require.NotNil(t, updated.LastReview)
	assert.True(t, updated.LastReview.Equal(now))
	assert.Equal(t, "card-1", updated.ID)
	assert.Equal(t, []string{"math"}, updated.Tags)

	assert.Equal(t, "card-1", event.CardID)
	assert.Equal(t, domain.Good, event.Rating)
	assert.True(t, event.ReviewDate.Equal(now))
}

func TestAdvanceAgainIncrementsLapses(t *testing.T) {
	s := NewFSRS(0.9)
	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	last := now.AddDate(0, 0, -5)

	card := domain.Card{
		ID:         "card-1",
		Due:        now.AddDate(0, 0, -1),
		Stability:  10,
		Difficulty: 5,
		Reps:       3,
		Lapses:     0,
		State:      domain.StateReview,
		LastReview: &last,
	}

	updated, _ := s.Advance(card, domain.Again, now)
	assert.Equal(t, 1, updated.Lapses)
	assert.GreaterOrEqual(t, updated.Reps, card.Reps, "reps never decrease")
	assert.Equal(t, 5, updated.ElapsedDays)
}

func TestAdvanceClampsRating(t *testing.T) {
	s := NewFSRS(0.9)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	card := s.NewCard(now)
	card.ID = "card-1"

	low, _ := s.Advance(card, domain.Rating(0), now)
	again, _ := s.Advance(card, domain.Again, now)
	assert.True(t, low.Due.Equal(again.Due))
	assert.Equal(t, again.State, low.State)

	high, _ := s.Advance(card, domain.Rating(9), now)
	easy, _ := s.Advance(card, domain.Easy, now)
	assert.True(t, high.Due.Equal(easy.Due))
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	s := NewFSRS(0.9)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	last := now.AddDate(0, 0, -3)

	card := domain.Card{
		ID:         "card-1",
		Due:        now,
		Stability:  4,
		Difficulty: 5,
		Reps:       1,
		State:      domain.StateReview,
		LastReview: &last,
		Tags:       []string{"math"},
	}
	before := card.Clone()

	updated, _ := s.Advance(card, domain.Easy, now)
	updated.Tags[0] = "changed"

	assert.Equal(t, before.Reps, card.Reps)
	assert.True(t, before.Due.Equal(card.Due))
	assert.True(t, before.LastReview.Equal(*card.LastReview))
	assert.Equal(t, "math", card.Tags[0], "output must not alias the input tag slice")
}

func TestScheduledDaysNeverNegative(t *testing.T) {
	s := NewFSRS(0.9)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	card := s.NewCard(now)

	for _, r := range domain.Ratings() {
		updated, _ := s.Advance(card, r, now)
		assert.GreaterOrEqual(t, updated.ScheduledDays, 0, "rating %s", r)
		assert.GreaterOrEqual(t, updated.ElapsedDays, 0, "rating %s", r)
	}
}
