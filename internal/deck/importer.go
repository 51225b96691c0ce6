package deck

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Illyarb/Excalibur/internal/engine"
)

// Importer creates cards from deck files, skipping entries whose content is
// already present in the collection.
type Importer struct {
	engine *engine.Engine
	log    *slog.Logger
}

// NewImporter returns an Importer backed by the given engine.
func NewImporter(e *engine.Engine, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{engine: e, log: log}
}

// Report summarizes one import run.
type Report struct {
	Files    int
	Parsed   int
	Imported int
	Skipped  int
	Failed   int
}

// ImportDir walks dir for .md deck files and creates a card for every entry
// not already in the collection. Unreadable files are counted as failed and
// skipped; they do not abort the run. Every imported card gets the given
// tags.
func (i *Importer) ImportDir(ctx context.Context, dir string, tags []string) (Report, error) {
	existing, err := i.existingFingerprints(ctx)
	if err != nil {
		return Report{}, err
	}

	var report Report
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		report.Files++

		entries, err := ParseFile(path)
		if err != nil {
			report.Failed++
			i.log.Warn("failed to parse deck file", "path", path, "error", err)
			return nil
		}

		for _, entry := range entries {
			report.Parsed++
			front, back := entry.Front, entry.Back
			if entry.Context != "" {
				back = back + "\n\n" + entry.Context
			}

			fp := Fingerprint(front, back)
			if existing[fp] {
				report.Skipped++
				continue
			}

			id, err := i.engine.CreateCard(ctx, front, back, tags)
			if err != nil {
				report.Failed++
				i.log.Warn("failed to import card", "path", path, "error", err)
				continue
			}
			existing[fp] = true
			report.Imported++
			i.log.Debug("card imported", "card_id", id, "path", path)
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("walking deck dir %s: %w", dir, walkErr)
	}
	return report, nil
}

// ImportGit syncs the repository into cacheDir and imports its deck files.
func (i *Importer) ImportGit(ctx context.Context, repoURL, cacheDir string, tags []string) (Report, error) {
	localPath, err := repoLocalPath(cacheDir, repoURL)
	if err != nil {
		return Report{}, err
	}
	if err := SyncRepo(repoURL, localPath, i.log); err != nil {
		return Report{}, err
	}
	return i.ImportDir(ctx, localPath, tags)
}

func (i *Importer) existingFingerprints(ctx context.Context) (map[string]bool, error) {
	cards, err := i.engine.Cards(ctx)
	if err != nil {
		return nil, err
	}
	fps := make(map[string]bool, len(cards))
	for _, card := range cards {
		front, back, err := i.engine.CardContent(card.ID)
		if err != nil {
			return nil, err
		}
		fps[Fingerprint(front, back)] = true
	}
	return fps, nil
}
