package domain

import "time"

// Card holds the scheduling state of a single flashcard. The card's prompt
// and answer live in the content store, addressed by ID; this struct only
// carries what the scheduler and the review engine need.
type Card struct {
	ID            string
	Due           time.Time
	Stability     float64
	Difficulty    float64
	ElapsedDays   int
	ScheduledDays int
	Reps          int
	Lapses        int
	State         State
	LastReview    *time.Time // nil until the first review
	Tags          []string
}

// Clone returns a deep copy of the card. Used for preview simulation so the
// caller's card is never mutated.
func (c Card) Clone() Card {
	out := c
	if c.LastReview != nil {
		v := *c.LastReview
		out.LastReview = &v
	}
	out.Tags = append([]string(nil), c.Tags...)
	return out
}

// IsDue reports whether the card is eligible for review at the given time.
func (c Card) IsDue(now time.Time) bool {
	return !c.Due.After(now)
}

// ReviewEvent records a single review of a card. Events are append-only and
// are removed only when their parent card is deleted.
type ReviewEvent struct {
	CardID     string
	Rating     Rating
	ReviewDate time.Time
}
