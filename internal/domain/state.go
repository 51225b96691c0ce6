package domain

import (
	"fmt"
	"strconv"
)

// State is the coarse lifecycle phase of a card.
type State int

const (
	StateNew State = iota
	StateLearning
	StateReview
	StateRelearning
)

var stateNames = [...]string{
	StateNew:        "New",
	StateLearning:   "Learning",
	StateReview:     "Review",
	StateRelearning: "Relearning",
}

// States lists all card states in lifecycle order.
func States() []State {
	return []State{StateNew, StateLearning, StateReview, StateRelearning}
}

// String returns the state name. For invalid values it returns "State(n)".
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	return s >= StateNew && s <= StateRelearning
}

// ParseState parses the stored textual form of a state ("0".."3" or a state
// name). Unknown values fall back to StateNew so a malformed row still loads.
func ParseState(s string) State {
	if n, err := strconv.Atoi(s); err == nil {
		st := State(n)
		if st.IsValid() {
			return st
		}
		return StateNew
	}
	for _, st := range States() {
		if s == st.String() {
			return st
		}
	}
	return StateNew
}
