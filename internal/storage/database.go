package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Illyarb/Excalibur/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the SQL database connection holding all durable scheduling state.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Single-process tool, but a stray second invocation should wait for the
	// lock instead of erroring out immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// withTx executes fn inside a transaction, committing on nil and rolling back
// on error. Partial failure never leaves a half-applied multi-row write.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const cardColumns = `due, stability, difficulty, elapsed_days, scheduled_days,
	reps, lapses, state, last_review, command, tags`

// scanCard reads one schedule row. Missing or malformed optional fields fall
// back to defaults so an old or hand-edited row still loads.
func scanCard(scan func(dest ...any) error, now time.Time) (domain.Card, error) {
	var (
		due, state, lastReview, id, tags sql.NullString
		stability, difficulty            sql.NullFloat64
		elapsed, scheduled, reps, lapses sql.NullInt64
	)
	err := scan(&due, &stability, &difficulty, &elapsed, &scheduled,
		&reps, &lapses, &state, &lastReview, &id, &tags)
	if err != nil {
		return domain.Card{}, err
	}

	card := domain.Card{
		ID:            id.String,
		Due:           parseTime(due.String, now),
		Stability:     stability.Float64,
		Difficulty:    difficulty.Float64,
		ElapsedDays:   int(elapsed.Int64),
		ScheduledDays: int(scheduled.Int64),
		Reps:          int(reps.Int64),
		Lapses:        int(lapses.Int64),
		State:         domain.ParseState(state.String),
		Tags:          domain.SplitTags(tags.String),
	}
	if lastReview.Valid && lastReview.String != "" {
		if t, ok := parseTimeStrict(lastReview.String); ok {
			card.LastReview = &t
		}
	}
	return card, nil
}

// InsertCard inserts a new schedule row for the card.
func (db *DB) InsertCard(ctx context.Context, card domain.Card) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO schedulling (priority, due, stability, difficulty, elapsed_days,
			scheduled_days, reps, lapses, state, last_review, command, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		1,
		formatTime(card.Due),
		card.Stability,
		card.Difficulty,
		card.ElapsedDays,
		card.ScheduledDays,
		card.Reps,
		card.Lapses,
		stateValue(card.State),
		lastReviewValue(card.LastReview),
		card.ID,
		domain.JoinTags(card.Tags),
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return nil
}

// GetCard retrieves a card's scheduling state by its ID.
func (db *DB) GetCard(ctx context.Context, id string) (domain.Card, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+cardColumns+`
		FROM schedulling WHERE command = ?
	`, id)

	card, err := scanCard(row.Scan, time.Now().UTC())
	if err == sql.ErrNoRows {
		return domain.Card{}, ErrCardNotFound
	}
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	return card, nil
}

// Cards retrieves every schedule row.
func (db *DB) Cards(ctx context.Context) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM schedulling
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	now := time.Now().UTC()
	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows.Scan, now)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// DueCards retrieves all cards with due <= now. Due comparison happens on the
// parsed timestamps, not on the stored text, so rows written with older
// formats still order correctly.
func (db *DB) DueCards(ctx context.Context, now time.Time) ([]domain.Card, error) {
	cards, err := db.Cards(ctx)
	if err != nil {
		return nil, err
	}
	var due []domain.Card
	for _, card := range cards {
		if card.IsDue(now) {
			due = append(due, card)
		}
	}
	return due, nil
}

// ApplyReview persists the post-review schedule state and appends the review
// event as one atomic unit: both writes succeed or neither does.
func (db *DB) ApplyReview(ctx context.Context, card domain.Card, event domain.ReviewEvent) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateScheduleSQL, scheduleArgs(card)...)
		if err != nil {
			return fmt.Errorf("failed to update card %s: %w", card.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrCardNotFound
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO review_log (card_id, rating, review_date)
			VALUES (?, ?, ?)
		`, event.CardID, fmt.Sprintf("%d", int(event.Rating)), formatTime(event.ReviewDate))
		if err != nil {
			return fmt.Errorf("failed to append review event for %s: %w", card.ID, err)
		}
		return nil
	})
}

// UpdateSchedule overwrites the card's scheduling fields without touching the
// review log. Used by reset.
func (db *DB) UpdateSchedule(ctx context.Context, card domain.Card) error {
	res, err := db.conn.ExecContext(ctx, updateScheduleSQL, scheduleArgs(card)...)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrCardNotFound
	}
	return nil
}

const updateScheduleSQL = `
	UPDATE schedulling
	SET due = ?, stability = ?, difficulty = ?, elapsed_days = ?,
		scheduled_days = ?, reps = ?, lapses = ?, state = ?, last_review = ?
	WHERE command = ?`

func scheduleArgs(card domain.Card) []any {
	return []any{
		formatTime(card.Due),
		card.Stability,
		card.Difficulty,
		card.ElapsedDays,
		card.ScheduledDays,
		card.Reps,
		card.Lapses,
		stateValue(card.State),
		lastReviewValue(card.LastReview),
		card.ID,
	}
}

// UpdateCardTags replaces the card's tag set. Names are normalized at write
// time.
func (db *DB) UpdateCardTags(ctx context.Context, id string, tags []string) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE schedulling SET tags = ? WHERE command = ?
	`, domain.JoinTags(tags), id)
	if err != nil {
		return fmt.Errorf("failed to update tags for card %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrCardNotFound
	}
	return nil
}

// DeleteCard removes the schedule row and all its review events atomically.
func (db *DB) DeleteCard(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM schedulling WHERE command = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete card %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrCardNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM review_log WHERE card_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete review events for %s: %w", id, err)
		}
		return nil
	})
}

// AddTag registers a new tag name, trimmed of surrounding whitespace. A tag
// can exist with zero cards.
func (db *DB) AddTag(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("tag name cannot be empty")
	}
	_, err := db.conn.ExecContext(ctx, `INSERT INTO tags (tag) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("failed to add tag %q: %w", name, err)
	}
	return nil
}

// Tags lists all registered tag names.
func (db *DB) Tags(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT tag FROM tags`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func stateValue(s domain.State) string {
	return fmt.Sprintf("%d", int(s))
}

func lastReviewValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
