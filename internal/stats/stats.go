// Package stats aggregates review history and schedule state into the
// summary, forecast and heatmap figures shown by the stats command.
package stats

import (
	"context"
	"math"
	"time"

	"github.com/Illyarb/Excalibur/internal/domain"
	"github.com/Illyarb/Excalibur/internal/storage"
)

const dayLayout = "2006-01-02"

// Aggregator computes read-only statistics over the schedule store.
type Aggregator struct {
	store *storage.DB
}

// New returns an Aggregator over the given store.
func New(store *storage.DB) *Aggregator {
	return &Aggregator{store: store}
}

// Summary is the top-level statistics snapshot.
type Summary struct {
	TotalCards        int
	TotalReviews      int
	DueCount          int
	Retention         float64
	AverageRating     float64
	AverageStability  float64
	AverageDifficulty float64
	RatingCounts      map[domain.Rating]int
	CardsByState      map[domain.State]int
	CardsPerDay       float64
	ReviewsPerDay     float64
}

// Summarize builds the full summary at the given time.
func (a *Aggregator) Summarize(ctx context.Context, now time.Time) (Summary, error) {
	var s Summary
	var err error

	if s.TotalCards, err = a.store.TotalCards(ctx); err != nil {
		return Summary{}, err
	}
	if s.TotalReviews, err = a.store.TotalReviews(ctx); err != nil {
		return Summary{}, err
	}
	due, err := a.store.DueCards(ctx, now)
	if err != nil {
		return Summary{}, err
	}
	s.DueCount = len(due)

	if s.RatingCounts, err = a.store.RatingCounts(ctx); err != nil {
		return Summary{}, err
	}
	s.Retention = retention(s.RatingCounts)

	if s.AverageRating, err = a.store.AverageRating(ctx); err != nil {
		return Summary{}, err
	}
	if s.AverageStability, err = a.store.AverageStability(ctx); err != nil {
		return Summary{}, err
	}
	if s.AverageDifficulty, err = a.store.AverageDifficulty(ctx); err != nil {
		return Summary{}, err
	}
	if s.CardsByState, err = a.store.CardsByState(ctx); err != nil {
		return Summary{}, err
	}

	events, err := a.store.ReviewEvents(ctx, time.Time{})
	if err != nil {
		return Summary{}, err
	}
	cards, err := a.store.Cards(ctx)
	if err != nil {
		return Summary{}, err
	}
	s.CardsPerDay = cardsPerDay(cards)
	s.ReviewsPerDay = reviewsPerDay(events)
	return s, nil
}

// retention is the share of non-Again answers over all reviews, as a
// percentage rounded to one decimal. No reviews means 0, not NaN.
func retention(counts map[domain.Rating]int) float64 {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 0
	}
	passed := total - counts[domain.Again]
	return math.Round(float64(passed)/float64(total)*1000) / 10
}

// reviewsPerDay averages the review count over the span between the earliest
// and latest review. events must be ordered oldest first.
func reviewsPerDay(events []domain.ReviewEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	return perDay(len(events), events[0].ReviewDate, events[len(events)-1].ReviewDate)
}

// cardsPerDay averages the reviewed-card count over the span between the
// earliest and latest last_review. Cards never reviewed have no timestamp
// and do not count.
func cardsPerDay(cards []domain.Card) float64 {
	var reviewed int
	var earliest, latest time.Time
	for _, card := range cards {
		if card.LastReview == nil {
			continue
		}
		reviewed++
		t := *card.LastReview
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
		if t.After(latest) {
			latest = t
		}
	}
	if reviewed == 0 {
		return 0
	}
	return perDay(reviewed, earliest, latest)
}

// perDay divides total by the day-span between the two timestamps. A span
// under one day reports the raw total.
func perDay(total int, earliest, latest time.Time) float64 {
	days := latest.Sub(earliest).Hours() / 24
	if days < 1 {
		return float64(total)
	}
	return float64(total) / days
}

// ReviewHistoryByDay counts reviews per calendar day over the trailing
// window, keyed by date in YYYY-MM-DD form. Days without reviews are
// absent from the map.
func (a *Aggregator) ReviewHistoryByDay(ctx context.Context, now time.Time, windowDays int) (map[string]int, error) {
	since := now.AddDate(0, 0, -windowDays)
	events, err := a.store.ReviewEvents(ctx, since)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]int)
	for _, ev := range events {
		byDay[ev.ReviewDate.UTC().Format(dayLayout)]++
	}
	return byDay, nil
}

// DueForecast counts, for each of the next n days, the cards whose due date
// falls within that day. Index 0 is [now, now+24h). Already-overdue cards
// appear in the due list, not the forecast.
func (a *Aggregator) DueForecast(ctx context.Context, now time.Time, n int) ([]int, error) {
	cards, err := a.store.Cards(ctx)
	if err != nil {
		return nil, err
	}
	forecast := make([]int, n)
	horizon := now.AddDate(0, 0, n)
	for _, card := range cards {
		if card.Due.Before(now) || !card.Due.Before(horizon) {
			continue
		}
		day := int(card.Due.Sub(now).Hours() / 24)
		if day >= 0 && day < n {
			forecast[day]++
		}
	}
	return forecast, nil
}

// HeatmapLevel bands a daily count into levels 0 through 5 relative to the
// busiest day. Zero maps to level 0; any nonzero count maps to at least 1.
func HeatmapLevel(count, max int) int {
	if count == 0 {
		return 0
	}
	if max < 1 {
		max = 1
	}
	level := int(math.Ceil(5 * float64(count) / float64(max)))
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}
	return level
}

// CardStats is the per-card drill-down view.
type CardStats struct {
	Card    domain.Card
	Reviews []domain.ReviewEvent
}

// CardStats returns the schedule state and full review history of one card.
func (a *Aggregator) CardStats(ctx context.Context, id string) (CardStats, error) {
	card, err := a.store.GetCard(ctx, id)
	if err != nil {
		return CardStats{}, err
	}
	reviews, err := a.store.CardReviewHistory(ctx, id)
	if err != nil {
		return CardStats{}, err
	}
	return CardStats{Card: card, Reviews: reviews}, nil
}
