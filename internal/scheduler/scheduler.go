// Package scheduler wraps the external spaced-repetition algorithm behind a
// small interface so the review engine can be tested without it. The
// algorithm is authoritative for due, stability, difficulty, state, reps and
// lapses; the adapter does not second-guess its outputs.
package scheduler

import (
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs/v3"

	"github.com/Illyarb/Excalibur/internal/domain"
)

// Scheduler advances a card's scheduling state for a given rating. Advance is
// pure: it never persists anything and never mutates its input, which lets
// the engine use it both for the real review transaction and for preview
// simulation.
type Scheduler interface {
	Advance(card domain.Card, rating domain.Rating, now time.Time) (domain.Card, domain.ReviewEvent)
	NewCard(now time.Time) domain.Card
}

// FSRS is the production Scheduler backed by the go-fsrs library.
type FSRS struct {
	f *fsrs.FSRS
}

// NewFSRS builds the adapter. desiredRetention overrides the algorithm's
// target retention when positive (e.g. 0.9 for 90%).
func NewFSRS(desiredRetention float64) *FSRS {
	params := fsrs.DefaultParam()
	if desiredRetention > 0 {
		params.RequestRetention = desiredRetention
	}
	return &FSRS{f: fsrs.NewFSRS(params)}
}

// NewCard returns the scheduler-assigned defaults for a freshly created card:
// due immediately, no history.
func (s *FSRS) NewCard(now time.Time) domain.Card {
	return domain.Card{
		Due:   now.UTC(),
		State: domain.StateNew,
	}
}

// Advance simulates a review of the card at the given time. Out-of-range
// ratings are clamped into [Again, Easy] rather than rejected.
func (s *FSRS) Advance(card domain.Card, rating domain.Rating, now time.Time) (domain.Card, domain.ReviewEvent) {
	rating = rating.Clamp()
	now = now.UTC()

	record := s.f.Repeat(toAlgorithm(card), now)
	updated := fromAlgorithm(record[fsrs.Rating(rating)].Card, card)

	// elapsed_days counts from the previous review (0 before the first);
	// scheduled_days counts toward the new due date, 0 when it is not in the
	// future.
	if card.LastReview != nil {
		updated.ElapsedDays = int(now.Sub(*card.LastReview).Hours() / 24)
	} else {
		updated.ElapsedDays = 0
	}
	updated.ScheduledDays = 0
	if updated.Due.After(now) {
		updated.ScheduledDays = int(updated.Due.Sub(now).Hours() / 24)
	}

	event := domain.ReviewEvent{
		CardID:     card.ID,
		Rating:     rating,
		ReviewDate: now,
	}
	return updated, event
}

func toAlgorithm(card domain.Card) fsrs.Card {
	out := fsrs.Card{
		Due:           card.Due,
		Stability:     card.Stability,
		Difficulty:    card.Difficulty,
		ElapsedDays:   uint64(max(card.ElapsedDays, 0)),
		ScheduledDays: uint64(max(card.ScheduledDays, 0)),
		Reps:          uint64(max(card.Reps, 0)),
		Lapses:        uint64(max(card.Lapses, 0)),
		State:         fsrs.State(card.State),
	}
	if card.LastReview != nil {
		out.LastReview = *card.LastReview
	}
	return out
}

func fromAlgorithm(ac fsrs.Card, orig domain.Card) domain.Card {
	out := domain.Card{
		ID:            orig.ID,
		Due:           ac.Due.UTC(),
		Stability:     ac.Stability,
		Difficulty:    ac.Difficulty,
		ElapsedDays:   int(ac.ElapsedDays),
		ScheduledDays: int(ac.ScheduledDays),
		Reps:          int(ac.Reps),
		Lapses:        int(ac.Lapses),
		State:         domain.State(ac.State),
		Tags:          append([]string(nil), orig.Tags...),
	}
	if !ac.LastReview.IsZero() {
		t := ac.LastReview.UTC()
		out.LastReview = &t
	}
	return out
}
