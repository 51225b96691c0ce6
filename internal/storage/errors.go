package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCardNotFound indicates that no schedule row exists for the card.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)

	// ErrTagNotFound indicates that the tag is not in the registry.
	ErrTagNotFound = fmt.Errorf("%w: tag", ErrNotFound)
)
