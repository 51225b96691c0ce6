package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Illyarb/Excalibur/internal/domain"
	"github.com/Illyarb/Excalibur/internal/storage"
)

func openTestStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedCard(t *testing.T, db *storage.DB, id string, due time.Time, state domain.State) {
	t.Helper()
	card := domain.Card{
		ID:         id,
		Due:        due,
		Stability:  2.5,
		Difficulty: 5.0,
		State:      state,
	}
	require.NoError(t, db.InsertCard(context.Background(), card))
}

func seedReview(t *testing.T, db *storage.DB, id string, rating domain.Rating, at time.Time) {
	t.Helper()
	ctx := context.Background()
	card, err := db.GetCard(ctx, id)
	require.NoError(t, err)
	card.Reps++
	card.LastReview = &at
	require.NoError(t, db.ApplyReview(ctx, card, domain.ReviewEvent{
		CardID:     id,
		Rating:     rating,
		ReviewDate: at,
	}))
}

func TestSummarizeEmptyStore(t *testing.T) {
	a := New(openTestStore(t))

	s, err := a.Summarize(context.Background(), time.Now().UTC())
	require.NoError(t, err)

	assert.Zero(t, s.TotalCards)
	assert.Zero(t, s.TotalReviews)
	assert.Zero(t, s.Retention)
	assert.Zero(t, s.AverageRating)
	assert.Zero(t, s.CardsPerDay)
	assert.Zero(t, s.ReviewsPerDay)
}

func TestSummarize(t *testing.T) {
	db := openTestStore(t)
	a := New(db)
	now := time.Now().UTC()

	seedCard(t, db, "a", now.Add(-time.Hour), domain.StateReview)
	seedCard(t, db, "b", now.Add(48*time.Hour), domain.StateNew)

	seedReview(t, db, "a", domain.Good, now.Add(-30*time.Minute))
	seedReview(t, db, "a", domain.Again, now.Add(-20*time.Minute))
	seedReview(t, db, "a", domain.Good, now.Add(-10*time.Minute))
	seedReview(t, db, "a", domain.Easy, now.Add(-5*time.Minute))

	s, err := a.Summarize(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 2, s.TotalCards)
	assert.Equal(t, 4, s.TotalReviews)
	assert.Equal(t, 1, s.DueCount)
	assert.Equal(t, 75.0, s.Retention)
	assert.Equal(t, 1, s.RatingCounts[domain.Again])
	assert.Equal(t, 2, s.RatingCounts[domain.Good])
	assert.Equal(t, 1, s.RatingCounts[domain.Easy])
	assert.Equal(t, 1, s.CardsByState[domain.StateNew])
	assert.Equal(t, 1, s.CardsByState[domain.StateReview])
	assert.InDelta(t, 2.75, s.AverageRating, 0.001)
	assert.InDelta(t, 2.5, s.AverageStability, 0.001)
	assert.InDelta(t, 5.0, s.AverageDifficulty, 0.001)

	// review span under one day reports the raw total; one card carries a
	// last_review, so the cards rate counts only it
	assert.Equal(t, 1.0, s.CardsPerDay)
	assert.Equal(t, 4.0, s.ReviewsPerDay)
}

func TestRetentionRounding(t *testing.T) {
	counts := map[domain.Rating]int{
		domain.Again: 1,
		domain.Good:  2,
	}
	assert.Equal(t, 66.7, retention(counts))
	assert.Zero(t, retention(nil))
}

func TestReviewsPerDaySpansReviewDates(t *testing.T) {
	now := time.Now().UTC()

	// two reviews seven days apart, the latest three days ago: the span is
	// the distance between the reviews, not the time since the last one
	events := []domain.ReviewEvent{
		{CardID: "a", Rating: domain.Good, ReviewDate: now.AddDate(0, 0, -10)},
		{CardID: "a", Rating: domain.Good, ReviewDate: now.AddDate(0, 0, -3)},
	}
	assert.InDelta(t, 2.0/7.0, reviewsPerDay(events), 0.001)

	assert.Zero(t, reviewsPerDay(nil))
}

func TestCardsPerDaySpansLastReviews(t *testing.T) {
	now := time.Now().UTC()
	at := func(daysAgo int) *time.Time {
		t := now.AddDate(0, 0, -daysAgo)
		return &t
	}

	cards := []domain.Card{
		{ID: "a", LastReview: at(10)},
		{ID: "b", LastReview: at(5)},
		{ID: "c", LastReview: at(0)},
		{ID: "never-reviewed"},
	}
	assert.InDelta(t, 0.3, cardsPerDay(cards), 0.001)

	// only unreviewed cards means no span and no rate
	assert.Zero(t, cardsPerDay([]domain.Card{{ID: "x"}}))

	// a single reviewed card has a zero span and reports the raw total
	assert.Equal(t, 1.0, cardsPerDay([]domain.Card{{ID: "a", LastReview: at(3)}}))
}

func TestReviewHistoryByDay(t *testing.T) {
	db := openTestStore(t)
	a := New(db)
	now := time.Now().UTC()

	seedCard(t, db, "a", now, domain.StateReview)
	seedReview(t, db, "a", domain.Good, now.Add(-time.Hour))
	seedReview(t, db, "a", domain.Good, now.Add(-2*time.Hour))
	seedReview(t, db, "a", domain.Again, now.AddDate(0, 0, -3))
	seedReview(t, db, "a", domain.Good, now.AddDate(-2, 0, 0))

	byDay, err := a.ReviewHistoryByDay(context.Background(), now, 365)
	require.NoError(t, err)

	assert.Equal(t, 2, byDay[now.Format("2006-01-02")])
	assert.Equal(t, 1, byDay[now.AddDate(0, 0, -3).Format("2006-01-02")])
	// outside the window
	assert.NotContains(t, byDay, now.AddDate(-2, 0, 0).Format("2006-01-02"))
}

func TestDueForecast(t *testing.T) {
	db := openTestStore(t)
	a := New(db)
	now := time.Now().UTC()

	seedCard(t, db, "overdue", now.Add(-48*time.Hour), domain.StateReview)
	seedCard(t, db, "today", now.Add(6*time.Hour), domain.StateLearning)
	seedCard(t, db, "in-three-days", now.Add(3*24*time.Hour+time.Hour), domain.StateReview)
	seedCard(t, db, "far", now.AddDate(0, 0, 30), domain.StateReview)

	forecast, err := a.DueForecast(context.Background(), now, 7)
	require.NoError(t, err)
	require.Len(t, forecast, 7)

	assert.Equal(t, 1, forecast[0])
	assert.Equal(t, 1, forecast[3])
	assert.Equal(t, 0, forecast[6])
}

func TestDueForecastExcludesOverdue(t *testing.T) {
	db := openTestStore(t)
	a := New(db)
	now := time.Now().UTC()

	// an overdue card belongs to the due list, not to any forecast day
	seedCard(t, db, "overdue", now.Add(-48*time.Hour), domain.StateReview)

	forecast, err := a.DueForecast(context.Background(), now, 7)
	require.NoError(t, err)
	for day, n := range forecast {
		assert.Zero(t, n, "day %d", day)
	}
}

func TestHeatmapLevel(t *testing.T) {
	cases := []struct {
		count, max, want int
	}{
		{0, 10, 0},
		{0, 0, 0},
		{1, 0, 5},
		{1, 10, 1},
		{2, 10, 1},
		{3, 10, 2},
		{5, 10, 3},
		{10, 10, 5},
		{10, 3, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HeatmapLevel(tc.count, tc.max), "count=%d max=%d", tc.count, tc.max)
	}

	// nonzero counts never band below the zero level
	for count := 1; count <= 20; count++ {
		level := HeatmapLevel(count, 20)
		assert.GreaterOrEqual(t, level, 1)
		assert.LessOrEqual(t, level, 5)
	}

	// banding is monotonic in the count for a fixed max
	prev := 0
	for count := 0; count <= 20; count++ {
		level := HeatmapLevel(count, 20)
		assert.GreaterOrEqual(t, level, prev)
		prev = level
	}
}

func TestCardStats(t *testing.T) {
	db := openTestStore(t)
	a := New(db)
	now := time.Now().UTC()

	seedCard(t, db, "a", now, domain.StateReview)
	seedReview(t, db, "a", domain.Good, now.Add(-time.Hour))

	cs, err := a.CardStats(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", cs.Card.ID)
	require.Len(t, cs.Reviews, 1)
	assert.Equal(t, domain.Good, cs.Reviews[0].Rating)

	_, err = a.CardStats(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrCardNotFound)
}
