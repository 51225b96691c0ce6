package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Illyarb/Excalibur/internal/domain"
)

// PreviewNextDue simulates a review for every rating and returns the
// formatted interval until the resulting due date. Nothing is persisted and
// the stored card is unchanged.
func (e *Engine) PreviewNextDue(ctx context.Context, id string) (map[domain.Rating]string, error) {
	card, err := e.store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	out := make(map[domain.Rating]string, len(domain.Ratings()))
	for _, rating := range domain.Ratings() {
		advanced, _ := e.sched.Advance(card.Clone(), rating, now)
		out[rating] = FormatInterval(advanced.Due.Sub(now))
	}
	return out, nil
}

// FormatInterval renders a duration as a compact interval label: minutes
// under an hour, hours under a day, days under a week, weeks beyond that.
// Values truncate toward zero.
func FormatInterval(d time.Duration) string {
	minutes := int(d.Minutes())
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dmin", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%dh", minutes/60)
	case minutes < 7*24*60:
		return fmt.Sprintf("%dd", minutes/(24*60))
	default:
		return fmt.Sprintf("%dw", minutes/(7*24*60))
	}
}
