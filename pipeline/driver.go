// Package pipeline drives one browser page through the per-product
// interaction sequence: overlay dismissal, field extraction, add-to-cart,
// and result aggregation.
package pipeline

import (
	"context"
	"time"

	"github.com/use-agent/cartprobe/models"
)

// Page is the live browser tab the pipeline drives. The Wait* methods
// block until the condition holds or timeout elapses, and return an error
// in the latter case.
type Page interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)

	// ScrollViewport scrolls the document down by one viewport height.
	ScrollViewport(ctx context.Context) error

	WaitClickable(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	WaitPresent(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) (Element, error)
}

// Element is a located page element.
type Element interface {
	// Click performs a pointer click.
	Click(ctx context.Context) error

	// DispatchClick calls the element's DOM click() directly, which is not
	// intercepted by overlays covering the element.
	DispatchClick(ctx context.Context) error

	ScrollIntoCenter(ctx context.Context) error
	Enabled(ctx context.Context) (bool, error)

	// ForceEnable strips the element's disabled state by script.
	ForceEnable(ctx context.Context) error
}

// Artifacts persists visual and markup evidence for a run.
type Artifacts interface {
	SaveScreenshot(name string, png []byte) (string, error)
	SaveMarkup(sequenceID, rawHTML string) (string, error)
}

// Sink receives the run's records once, at the end of the run.
type Sink interface {
	Flush(records []models.ExtractedRecord) (string, error)
}
