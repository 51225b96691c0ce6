// Package engine orchestrates due-card selection, the review transaction,
// preview simulation and card lifecycle operations over the schedule store,
// the content store and the scheduling adapter.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Illyarb/Excalibur/internal/content"
	"github.com/Illyarb/Excalibur/internal/domain"
	"github.com/Illyarb/Excalibur/internal/editor"
	"github.com/Illyarb/Excalibur/internal/scheduler"
	"github.com/Illyarb/Excalibur/internal/storage"
)

// ErrContentWrite is returned when a content blob cannot be persisted during
// card creation. No schedule row is created in that case.
var ErrContentWrite = errors.New("failed to write card content")

// ErrInvalidSide is returned for a side other than front or back.
var ErrInvalidSide = errors.New("invalid card side")

// Engine wires the stores and the scheduling adapter together. One Engine
// serves the whole process; it performs one logical operation at a time.
type Engine struct {
	store   *storage.DB
	content *content.Store
	sched   scheduler.Scheduler
	editor  *editor.Editor
	log     *slog.Logger
	now     func() time.Time
}

// New builds an Engine. The editor may be nil when card editing is not
// needed (e.g. batch imports).
func New(store *storage.DB, contentStore *content.Store, sched scheduler.Scheduler, ed *editor.Editor, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:   store,
		content: contentStore,
		sched:   sched,
		editor:  ed,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// DueCards returns all cards eligible for review at the given time. A card
// that has never been reviewed is eligible as soon as its creation-time due
// date has passed.
func (e *Engine) DueCards(ctx context.Context, now time.Time) ([]domain.Card, error) {
	return e.store.DueCards(ctx, now)
}

// FilterByTags keeps the cards whose tag set intersects the selection. An
// empty selection means "show everything", not "show nothing": the input is
// returned unchanged.
func FilterByTags(cards []domain.Card, selected []string) []domain.Card {
	selected = domain.NormalizeTags(selected)
	if len(selected) == 0 {
		return cards
	}
	var out []domain.Card
	for _, card := range cards {
		if domain.TagsIntersect(card.Tags, selected) {
			out = append(out, card)
		}
	}
	return out
}

// Review advances the card's schedule for the given rating and appends the
// review event, atomically. The rating is clamped into [Again, Easy]. A
// failed review must not be retried blindly: a retry of a success would
// double-count.
func (e *Engine) Review(ctx context.Context, id string, rating domain.Rating) (domain.Card, error) {
	card, err := e.store.GetCard(ctx, id)
	if err != nil {
		return domain.Card{}, err
	}

	updated, event := e.sched.Advance(card, rating.Clamp(), e.now())
	if err := e.store.ApplyReview(ctx, updated, event); err != nil {
		return domain.Card{}, err
	}

	e.log.Debug("card reviewed",
		"card_id", id,
		"rating", event.Rating.String(),
		"due", updated.Due)
	return updated, nil
}

// CreateCard allocates a new card: both content blobs are written first, then
// the schedule row is inserted with scheduler defaults and the given tags.
// If either blob fails to persist no schedule row is created.
func (e *Engine) CreateCard(ctx context.Context, front, back string, tags []string) (string, error) {
	id := uuid.NewString()

	if err := e.content.Write(id, content.Front, front); err != nil {
		return "", fmt.Errorf("%w: %v", ErrContentWrite, err)
	}
	if err := e.content.Write(id, content.Back, back); err != nil {
		e.removeBlobs(id)
		return "", fmt.Errorf("%w: %v", ErrContentWrite, err)
	}

	card := e.sched.NewCard(e.now())
	card.ID = id
	card.Tags = domain.NormalizeTags(tags)
	if err := e.store.InsertCard(ctx, card); err != nil {
		e.removeBlobs(id)
		return "", err
	}

	e.log.Debug("card created", "card_id", id, "tags", card.Tags)
	return id, nil
}

// DeleteCard removes the schedule row and review events atomically, then
// removes the content blobs best-effort. Blob removal failures are logged,
// not returned; an orphaned blob is harmless leftover garbage.
func (e *Engine) DeleteCard(ctx context.Context, id string) error {
	if err := e.store.DeleteCard(ctx, id); err != nil {
		return err
	}
	e.removeBlobs(id)
	e.log.Debug("card deleted", "card_id", id)
	return nil
}

// DuplicateCard copies the card's content to a fresh ID and creates a new
// schedule row with scheduler defaults. Review history and progress are not
// copied; the duplicate starts as a new card. newTags, when non-nil,
// replaces the source card's tags.
func (e *Engine) DuplicateCard(ctx context.Context, id string, newTags []string) (string, error) {
	src, err := e.store.GetCard(ctx, id)
	if err != nil {
		return "", err
	}
	front, err := e.content.Read(id, content.Front)
	if err != nil {
		return "", err
	}
	back, err := e.content.Read(id, content.Back)
	if err != nil {
		return "", err
	}

	tags := newTags
	if tags == nil {
		tags = src.Tags
	}
	return e.CreateCard(ctx, front, back, tags)
}

// ResetCard puts the schedule row back to scheduler defaults in place. The
// ID, tags, content and review history are untouched.
func (e *Engine) ResetCard(ctx context.Context, id string) error {
	card, err := e.store.GetCard(ctx, id)
	if err != nil {
		return err
	}
	reset := e.sched.NewCard(e.now())
	reset.ID = card.ID
	reset.Tags = card.Tags
	return e.store.UpdateSchedule(ctx, reset)
}

// Card returns the scheduling state of one card.
func (e *Engine) Card(ctx context.Context, id string) (domain.Card, error) {
	return e.store.GetCard(ctx, id)
}

// CardContent returns both text blobs of the card. Missing blobs read as
// empty text.
func (e *Engine) CardContent(id string) (front, back string, err error) {
	front, err = e.content.Read(id, content.Front)
	if err != nil {
		return "", "", err
	}
	back, err = e.content.Read(id, content.Back)
	if err != nil {
		return "", "", err
	}
	return front, back, nil
}

// Cards returns all cards in the schedule store.
func (e *Engine) Cards(ctx context.Context) ([]domain.Card, error) {
	return e.store.Cards(ctx)
}

// EditCard opens the given side of the card in the external editor, blocking
// until it exits, and returns the resulting blob text.
func (e *Engine) EditCard(ctx context.Context, id string, side content.Side) (string, error) {
	if !side.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	if e.editor == nil {
		return "", fmt.Errorf("no editor configured")
	}
	if _, err := e.store.GetCard(ctx, id); err != nil {
		return "", err
	}
	if err := e.editor.Edit(e.content.Path(id, side)); err != nil {
		return "", err
	}
	return e.content.Read(id, side)
}

// UpdateCardTags replaces the card's tag set.
func (e *Engine) UpdateCardTags(ctx context.Context, id string, tags []string) error {
	return e.store.UpdateCardTags(ctx, id, tags)
}

// NewTag registers a tag name. Tags exist independently of the cards that
// reference them.
func (e *Engine) NewTag(ctx context.Context, name string) error {
	return e.store.AddTag(ctx, name)
}

// Tags lists all registered tag names.
func (e *Engine) Tags(ctx context.Context) ([]string, error) {
	return e.store.Tags(ctx)
}

// TagDueCounts returns, for every registered tag, how many due cards carry
// it.
func (e *Engine) TagDueCounts(ctx context.Context, now time.Time) (map[string]int, error) {
	tags, err := e.store.Tags(ctx)
	if err != nil {
		return nil, err
	}
	due, err := e.store.DueCards(ctx, now)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(tags))
	for _, tag := range tags {
		counts[tag] = 0
	}
	for _, card := range due {
		for _, tag := range card.Tags {
			if _, ok := counts[tag]; ok {
				counts[tag]++
			}
		}
	}
	return counts, nil
}

func (e *Engine) removeBlobs(id string) {
	for _, side := range []content.Side{content.Front, content.Back} {
		if err := e.content.Remove(id, side); err != nil {
			e.log.Warn("failed to remove content blob",
				"card_id", id,
				"side", side,
				"error", err)
		}
	}
}
