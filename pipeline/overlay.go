package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/cartprobe/models"
	"github.com/use-agent/cartprobe/poll"
)

// OverlayDismisser closes modals and banners that cover the page. Absence
// of any overlay is the normal case and never an error.
type OverlayDismisser struct {
	selectors []string
	timeout   time.Duration
	settle    time.Duration
	sleeper   poll.Sleeper
	log       *slog.Logger
}

// NewOverlayDismisser creates a dismisser trying selectors in order, each
// for at most timeout, pausing settle after every successful click.
func NewOverlayDismisser(selectors []string, timeout, settle time.Duration, s poll.Sleeper, log *slog.Logger) *OverlayDismisser {
	return &OverlayDismisser{
		selectors: selectors,
		timeout:   timeout,
		settle:    settle,
		sleeper:   s,
		log:       log,
	}
}

// Dismiss tries every selector once and returns how many overlays it
// closed. It stops early only when ctx is done.
func (d *OverlayDismisser) Dismiss(ctx context.Context, page Page) int {
	closed := 0
	for _, sel := range d.selectors {
		el, err := page.WaitClickable(ctx, sel, d.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return closed
			}
			d.log.Debug("overlay absent", "selector", sel, "code", models.ErrCodeOverlayNotFound)
			continue
		}
		if err := el.Click(ctx); err != nil {
			d.log.Debug("overlay click failed", "selector", sel, "error", err)
			continue
		}
		closed++
		d.log.Debug("overlay dismissed", "selector", sel)
		if err := d.sleeper.Sleep(ctx, d.settle); err != nil {
			return closed
		}
	}
	return closed
}
