package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/cartprobe/models"
	"github.com/use-agent/cartprobe/pipeline"
)

// Page is a rod tab implementing pipeline.Page.
type Page struct {
	page       *rod.Page
	session    *Session
	router     *rod.HijackRouter
	navTimeout time.Duration
}

var _ pipeline.Page = (*Page)(nil)

// Navigate loads url and waits for the load event, then gives the DOM a
// short chance to settle.
func (p *Page) Navigate(ctx context.Context, url string) error {
	tp := p.page.Context(ctx).Timeout(p.navTimeout)
	defer tp.CancelTimeout()

	if err := tp.Navigate(url); err != nil {
		return p.categorizeError(err, "navigation to target URL failed")
	}
	if err := tp.WaitLoad(); err != nil {
		return p.categorizeError(err, "page did not finish loading")
	}
	if err := tp.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		p.session.log.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err,
		)
	}
	return nil
}

// HTML returns the rendered document.
func (p *Page) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", p.categorizeError(err, "failed to read page HTML")
	}
	return html, nil
}

// Screenshot captures the visible viewport as PNG.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	png, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, p.categorizeError(err, "failed to capture screenshot")
	}
	return png, nil
}

// ScrollViewport scrolls down by one viewport height so lazy sections and
// scroll-triggered popups render.
func (p *Page) ScrollViewport(ctx context.Context) error {
	pg := p.page.Context(ctx)
	res, err := pg.Eval(`() => window.innerHeight`)
	if err != nil {
		return fmt.Errorf("failed to get viewport height: %w", err)
	}
	if err := pg.Mouse.Scroll(0, float64(res.Value.Int()), 0); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

// WaitClickable waits for selector to exist and accept pointer input.
func (p *Page) WaitClickable(ctx context.Context, selector string, timeout time.Duration) (pipeline.Element, error) {
	return p.wait(ctx, selector, timeout, func(el *rod.Element) error {
		_, err := el.WaitInteractable()
		return err
	})
}

// WaitPresent waits for selector to exist in the DOM.
func (p *Page) WaitPresent(ctx context.Context, selector string, timeout time.Duration) (pipeline.Element, error) {
	return p.wait(ctx, selector, timeout, nil)
}

// WaitVisible waits for selector to exist and be rendered visibly.
func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) (pipeline.Element, error) {
	return p.wait(ctx, selector, timeout, func(el *rod.Element) error {
		return el.WaitVisible()
	})
}

// wait locates selector and then applies cond, both under one deadline.
// The returned element is rebound to ctx so later calls outlive the
// deadline.
func (p *Page) wait(ctx context.Context, selector string, timeout time.Duration, cond func(*rod.Element) error) (pipeline.Element, error) {
	tp := p.page.Context(ctx).Timeout(timeout)
	defer tp.CancelTimeout()

	el, err := tp.Element(selector)
	if err != nil {
		return nil, p.categorizeError(err, fmt.Sprintf("waiting for %q", selector))
	}
	if cond != nil {
		if err := cond(el); err != nil {
			return nil, p.categorizeError(err, fmt.Sprintf("waiting for %q", selector))
		}
	}
	return &Element{el: el.Context(ctx)}, nil
}

// Close stops request interception and closes the tab.
func (p *Page) Close() {
	if p.router != nil {
		_ = p.router.Stop()
	}
	_ = p.page.Close()
}

// categorizeError wraps raw errors into typed ScrapeErrors. Deadline
// errors stay plain so callers can treat them as an expected timeout;
// anything else is checked against browser liveness.
func (p *Page) categorizeError(err error, msg string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", msg, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", msg, err)
	case !p.session.alive():
		return models.NewScrapeError(models.ErrCodeBrowserCrash, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
