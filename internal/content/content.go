// Package content stores the prompt and answer text of each card as a pair of
// markdown files under a dedicated cards directory, named
// {card_id}_front.md and {card_id}_back.md.
package content

import (
	"fmt"
	"os"
	"path/filepath"
)

// Side selects one of the two text blobs of a card.
type Side string

const (
	Front Side = "front"
	Back  Side = "back"
)

// IsValid reports whether s names a card side.
func (s Side) IsValid() bool {
	return s == Front || s == Back
}

// Store reads and writes card content blobs.
type Store struct {
	dir string
}

// NewStore returns a store rooted at the given cards directory. The directory
// is created lazily on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the blob location for a card side. The external editor is
// pointed at this path.
func (s *Store) Path(id string, side Side) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.md", id, side))
}

// Read returns the blob text. A missing file is empty content, not an error,
// so the UI can always render something.
func (s *Store) Read(id string, side Side) (string, error) {
	data, err := os.ReadFile(s.Path(id, side))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s side of card %s: %w", side, id, err)
	}
	return string(data), nil
}

// Write persists the blob text, creating the cards directory if needed.
func (s *Store) Write(id string, side Side, text string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cards directory: %w", err)
	}
	if err := os.WriteFile(s.Path(id, side), []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s side of card %s: %w", side, id, err)
	}
	return nil
}

// Remove deletes the blob. Removing a blob that does not exist is not an
// error.
func (s *Store) Remove(id string, side Side) error {
	err := os.Remove(s.Path(id, side))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s side of card %s: %w", side, id, err)
	}
	return nil
}
