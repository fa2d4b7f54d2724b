package pipeline

import (
	"context"
	"log/slog"
)

// captureScreenshot saves the current page state under name. Evidence is
// best-effort: failures are logged and never change an item's outcome.
func captureScreenshot(ctx context.Context, page Page, a Artifacts, log *slog.Logger, seq, name string) bool {
	png, err := page.Screenshot(ctx)
	if err != nil {
		log.Warn("screenshot failed", "seq", seq, "name", name, "error", err)
		return false
	}
	path, err := a.SaveScreenshot(name, png)
	if err != nil {
		log.Warn("saving screenshot failed", "seq", seq, "name", name, "error", err)
		return false
	}
	log.Debug("screenshot saved", "seq", seq, "path", path)
	return true
}

// captureMarkup dumps the page source for post-mortem of a failed item.
func captureMarkup(ctx context.Context, page Page, a Artifacts, log *slog.Logger, seq string) {
	raw, err := page.HTML(ctx)
	if err != nil {
		log.Warn("reading page source failed", "seq", seq, "error", err)
		return
	}
	path, err := a.SaveMarkup(seq, raw)
	if err != nil {
		log.Warn("saving page source failed", "seq", seq, "error", err)
		return
	}
	log.Info("page source saved for debugging", "seq", seq, "path", path)
}
