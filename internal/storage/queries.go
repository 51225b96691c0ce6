package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Illyarb/Excalibur/internal/domain"
)

// Aggregation reads used by the statistics package.

// TotalCards counts all schedule rows.
func (db *DB) TotalCards(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedulling`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}

// CardsByState counts schedule rows per lifecycle state.
func (db *DB) CardsByState(ctx context.Context) (map[domain.State]int, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT state, COUNT(*) FROM schedulling GROUP BY state
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count cards by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.State]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		counts[domain.ParseState(state)] += n
	}
	return counts, rows.Err()
}

// RatingCounts counts review events per rating value. Rows with an
// unparseable rating are skipped.
func (db *DB) RatingCounts(ctx context.Context) (map[domain.Rating]int, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT rating, COUNT(*) FROM review_log GROUP BY rating
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count ratings: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Rating]int)
	for rows.Next() {
		var rating string
		var n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, fmt.Errorf("failed to scan rating count: %w", err)
		}
		r, err := domain.ParseRating(rating)
		if err != nil {
			continue
		}
		counts[r] += n
	}
	return counts, rows.Err()
}

// TotalReviews counts all review events.
func (db *DB) TotalReviews(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM review_log`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return n, nil
}

// AverageRating returns the mean rating value over all review events, 0 when
// there are none.
func (db *DB) AverageRating(ctx context.Context) (float64, error) {
	var avg *float64
	err := db.conn.QueryRowContext(ctx, `
		SELECT AVG(CAST(rating AS REAL)) FROM review_log
	`).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average ratings: %w", err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// AverageStability returns the mean stability over all cards, 0 when empty.
func (db *DB) AverageStability(ctx context.Context) (float64, error) {
	return db.scheduleAverage(ctx, "stability")
}

// AverageDifficulty returns the mean difficulty over all cards, 0 when empty.
func (db *DB) AverageDifficulty(ctx context.Context) (float64, error) {
	return db.scheduleAverage(ctx, "difficulty")
}

func (db *DB) scheduleAverage(ctx context.Context, column string) (float64, error) {
	var avg *float64
	err := db.conn.QueryRowContext(ctx, `SELECT AVG(`+column+`) FROM schedulling`).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average %s: %w", column, err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// ReviewEvents lists all review events dated at or after since, oldest first.
// Events with an unparseable date or rating are skipped.
func (db *DB) ReviewEvents(ctx context.Context, since time.Time) ([]domain.ReviewEvent, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT card_id, rating, review_date FROM review_log ORDER BY review_date
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list review events: %w", err)
	}
	defer rows.Close()

	var events []domain.ReviewEvent
	for rows.Next() {
		event, ok, err := scanReviewEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		if !ok || event.ReviewDate.Before(since) {
			continue
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// CardReviewHistory lists the review events of one card, oldest first.
func (db *DB) CardReviewHistory(ctx context.Context, id string) ([]domain.ReviewEvent, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT card_id, rating, review_date
		FROM review_log WHERE card_id = ?
		ORDER BY review_date
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list review history for %s: %w", id, err)
	}
	defer rows.Close()

	var events []domain.ReviewEvent
	for rows.Next() {
		event, ok, err := scanReviewEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanReviewEvent(scan func(dest ...any) error) (domain.ReviewEvent, bool, error) {
	var cardID, rating, reviewDate string
	if err := scan(&cardID, &rating, &reviewDate); err != nil {
		return domain.ReviewEvent{}, false, fmt.Errorf("failed to scan review event: %w", err)
	}
	r, err := domain.ParseRating(rating)
	if err != nil {
		return domain.ReviewEvent{}, false, nil
	}
	date, ok := parseTimeStrict(reviewDate)
	if !ok {
		return domain.ReviewEvent{}, false, nil
	}
	return domain.ReviewEvent{CardID: cardID, Rating: r, ReviewDate: date}, true, nil
}
