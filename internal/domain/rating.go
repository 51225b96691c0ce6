package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// Rating is the user's assessment of recall quality for a review.
type Rating int

const (
	Again Rating = iota + 1 // failed to recall
	Hard                    // recalled with significant difficulty
	Good                    // recalled with some effort
	Easy                    // recalled effortlessly
)

// ErrInvalidRating is returned when a rating cannot be parsed.
var ErrInvalidRating = errors.New("invalid rating")

var ratingNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

// Ratings lists all valid ratings in ascending order.
func Ratings() []Rating {
	return []Rating{Again, Hard, Good, Easy}
}

// String returns the name of the rating ("Again", "Hard", "Good", "Easy").
// For invalid values it returns "Rating(n)".
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// IsValid reports whether r is within the Again..Easy domain.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// Clamp forces r into the valid [Again, Easy] domain. Callers clamp
// out-of-range input rather than failing the review.
func (r Rating) Clamp() Rating {
	if r < Again {
		return Again
	}
	if r > Easy {
		return Easy
	}
	return r
}

// ParseRating parses the stored textual form of a rating ("1".."4" or a
// rating name).
func ParseRating(s string) (Rating, error) {
	if n, err := strconv.Atoi(s); err == nil {
		r := Rating(n)
		if r.IsValid() {
			return r, nil
		}
		return 0, fmt.Errorf("%w: %d", ErrInvalidRating, n)
	}
	for _, r := range Ratings() {
		if s == r.String() {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
}
