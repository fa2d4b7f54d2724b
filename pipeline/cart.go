package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/cartprobe/config"
	"github.com/use-agent/cartprobe/models"
	"github.com/use-agent/cartprobe/poll"
)

// CartInteractor adds the current product to the cart and verifies the
// confirmation panel:
//
//	Idle -> Located -> Scrolled -> EnabledCheck -> Clicked -> Confirmed
//
// Any step may end in Failed. Failures are returned on the result, never
// raised, so the caller keeps the already extracted record.
//
// When the purchase control stays disabled for the whole poll window its
// disabled state is removed by script and the click goes ahead. This can
// report a confirmed add for a control the site disabled on purpose (out
// of stock, missing variant); such results carry Forced=true.
type CartInteractor struct {
	cfg            config.CartConfig
	locateTimeout  time.Duration
	confirmTimeout time.Duration
	sleeper        poll.Sleeper
	artifacts      Artifacts
	log            *slog.Logger
}

// NewCartInteractor creates a CartInteractor.
func NewCartInteractor(cfg config.CartConfig, locateTimeout, confirmTimeout time.Duration, s poll.Sleeper, a Artifacts, log *slog.Logger) *CartInteractor {
	return &CartInteractor{
		cfg:            cfg,
		locateTimeout:  locateTimeout,
		confirmTimeout: confirmTimeout,
		sleeper:        s,
		artifacts:      a,
		log:            log,
	}
}

// cartRun carries the state of one AddToCart call.
type cartRun struct {
	res models.CartResult
	seq string
	log *slog.Logger
}

func (r *cartRun) advance(s models.CartState) {
	r.res.State = s
	r.log.Debug("cart state", "seq", r.seq, "state", s.String())
}

func (r *cartRun) fail(msg string, err error) models.CartResult {
	r.res.LastGood = r.res.State
	r.res.State = models.CartFailed
	r.res.Err = models.NewScrapeError(
		models.ErrCodeCartInteraction,
		fmt.Sprintf("%s (last state %s)", msg, r.res.LastGood),
		err,
	)
	return r.res
}

// AddToCart runs the state machine for t on page.
func (c *CartInteractor) AddToCart(ctx context.Context, page Page, t models.Target) models.CartResult {
	run := &cartRun{res: models.CartResult{State: models.CartIdle}, seq: t.SequenceID, log: c.log}

	el, err := page.WaitPresent(ctx, c.cfg.PurchaseSelector, c.locateTimeout)
	if err != nil {
		return run.fail("purchase control not found", err)
	}
	run.advance(models.CartLocated)

	if err := el.ScrollIntoCenter(ctx); err != nil {
		return run.fail("scrolling purchase control into view", err)
	}
	if err := c.sleeper.Sleep(ctx, c.cfg.Settle); err != nil {
		return run.fail("interrupted after scroll", err)
	}
	run.advance(models.CartScrolled)

	err = poll.Until(ctx, c.sleeper, c.cfg.EnablePollInterval, c.cfg.EnablePollAttempts, el.Enabled)
	switch {
	case err == nil:
	case errors.Is(err, poll.ErrExhausted):
		c.log.Warn("purchase control still disabled, forcing it enabled",
			"seq", t.SequenceID, "attempts", c.cfg.EnablePollAttempts)
		if err := el.ForceEnable(ctx); err != nil {
			return run.fail("forcing purchase control enabled", err)
		}
		run.res.Forced = true
	default:
		return run.fail("checking purchase control state", err)
	}
	run.advance(models.CartEnabledCheck)

	if err := el.DispatchClick(ctx); err != nil {
		return run.fail("clicking purchase control", err)
	}
	run.advance(models.CartClicked)
	if err := c.sleeper.Sleep(ctx, c.cfg.Settle); err != nil {
		return run.fail("interrupted after click", err)
	}

	if _, err := page.WaitVisible(ctx, c.cfg.ConfirmSelector, c.confirmTimeout); err != nil {
		return run.fail("cart confirmation did not appear", err)
	}
	run.advance(models.CartConfirmed)

	captureScreenshot(ctx, page, c.artifacts, c.log, t.SequenceID, "modal_"+t.SequenceID+".png")
	if c.cfg.PageURL != "" {
		c.captureCartPage(ctx, page, t)
	}
	return run.res
}

// captureCartPage opens the cart and screenshots it. The add is already
// confirmed, so failures here are warnings only.
func (c *CartInteractor) captureCartPage(ctx context.Context, page Page, t models.Target) {
	if err := page.Navigate(ctx, c.cfg.PageURL); err != nil {
		c.log.Warn("opening cart page failed", "seq", t.SequenceID, "url", c.cfg.PageURL, "error", err)
		return
	}
	if err := c.sleeper.Sleep(ctx, c.cfg.Settle); err != nil {
		return
	}
	captureScreenshot(ctx, page, c.artifacts, c.log, t.SequenceID, "cart_"+t.SequenceID+".png")
}
