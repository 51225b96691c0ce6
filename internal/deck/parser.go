// Package deck imports flashcards from markdown deck files, either from a
// local directory or a git repository. Deck files hold entries as Q:/A:/C:
// prefixed blocks separated by "---" lines or new questions.
package deck

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Entry is one card as written in a deck file.
type Entry struct {
	Front   string
	Back    string
	Context string
}

const (
	frontPrefix   = "Q:"
	backPrefix    = "A:"
	contextPrefix = "C:"
	separator     = "---"
)

type section int

const (
	seeking section = iota
	inFront
	inBack
	inContext
)

// ParseFile opens the deck file at path and extracts its entries.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse extracts all entries from the reader. Lines before the first Q: are
// ignored, as are entries without a front. Blocks run until the next prefix,
// separator or end of input.
func Parse(r io.Reader) ([]Entry, error) {
	var (
		entries []Entry
		current Entry
		block   []string
		state   = seeking
	)

	closeBlock := func() {
		if len(block) == 0 {
			return
		}
		text := strings.Join(block, "\n")
		switch state {
		case inFront:
			current.Front = text
		case inBack:
			current.Back = text
		case inContext:
			current.Context = text
		}
		block = nil
	}

	closeEntry := func() {
		closeBlock()
		if current.Front != "" {
			entries = append(entries, current)
		}
		current = Entry{}
		state = seeking
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if line == separator {
			closeEntry()
			continue
		}

		next, rest, ok := prefixOf(line)
		if !ok {
			if state != seeking {
				block = append(block, line)
			}
			continue
		}

		if next == inFront && state != seeking {
			// a new question always starts a new entry
			closeEntry()
		} else {
			closeBlock()
		}
		state = next
		block = append(block, rest)
	}
	closeEntry()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func prefixOf(line string) (section, string, bool) {
	for _, p := range []struct {
		prefix string
		s      section
	}{
		{frontPrefix, inFront},
		{backPrefix, inBack},
		{contextPrefix, inContext},
	} {
		if strings.HasPrefix(line, p.prefix) {
			rest := strings.TrimPrefix(line, p.prefix)
			rest = strings.TrimPrefix(rest, " ")
			return p.s, rest, true
		}
	}
	return seeking, "", false
}
