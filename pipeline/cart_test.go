package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/use-agent/cartprobe/config"
	"github.com/use-agent/cartprobe/models"
)

var widgetTarget = models.Target{URL: productURL, SequenceID: "7"}

func newTestCart(cfg config.CartConfig, a Artifacts, s *recordingSleeper) *CartInteractor {
	return NewCartInteractor(cfg, 20*time.Second, 10*time.Second, s, a, discardLogger())
}

func TestCart_EnabledControlConfirms(t *testing.T) {
	cfg := testConfig()
	page := newFakePage()
	buy := &fakeElement{enabledAfter: 0}
	page.present[cfg.Cart.PurchaseSelector] = buy
	page.visible[cfg.Cart.ConfirmSelector] = &fakeElement{}
	arts := newMemArtifacts()

	res := newTestCart(cfg.Cart, arts, &recordingSleeper{}).AddToCart(context.Background(), page, widgetTarget)

	if !res.Confirmed() {
		t.Fatalf("state = %s, err = %v; want confirmed", res.State, res.Err)
	}
	if res.Forced {
		t.Error("enabled control must not be forced")
	}
	if buy.scrolls != 1 || buy.dispatchClicks != 1 || buy.clicks != 0 || buy.forceCalls != 0 {
		t.Errorf("scrolls=%d dispatch=%d clicks=%d force=%d", buy.scrolls, buy.dispatchClicks, buy.clicks, buy.forceCalls)
	}
	if _, ok := arts.screenshots["modal_7.png"]; !ok {
		t.Errorf("expected modal_7.png, got %v", keys(arts.screenshots))
	}
	if _, ok := arts.screenshots["cart_7.png"]; ok {
		t.Error("cart page screenshot requires a cart page URL")
	}
}

func TestCart_LateEnableDoesNotForce(t *testing.T) {
	cfg := testConfig()
	page := newFakePage()
	buy := &fakeElement{enabledAfter: 2}
	page.present[cfg.Cart.PurchaseSelector] = buy
	page.visible[cfg.Cart.ConfirmSelector] = &fakeElement{}

	res := newTestCart(cfg.Cart, newMemArtifacts(), &recordingSleeper{}).AddToCart(context.Background(), page, widgetTarget)

	if !res.Confirmed() || res.Forced {
		t.Errorf("state = %s forced = %v; want confirmed, not forced", res.State, res.Forced)
	}
	if buy.enabledCalls != 3 {
		t.Errorf("enabled checks = %d, want 3", buy.enabledCalls)
	}
}

func TestCart_NeverEnabledForcesExactlyOnce(t *testing.T) {
	cfg := testConfig()
	page := newFakePage()
	buy := &fakeElement{enabledAfter: -1}
	page.present[cfg.Cart.PurchaseSelector] = buy
	buy.onDispatch = func() { page.visible[cfg.Cart.ConfirmSelector] = &fakeElement{} }
	s := &recordingSleeper{}

	res := newTestCart(cfg.Cart, newMemArtifacts(), s).AddToCart(context.Background(), page, widgetTarget)

	if !res.Confirmed() {
		t.Fatalf("state = %s, err = %v; want confirmed", res.State, res.Err)
	}
	if !res.Forced {
		t.Error("result should be flagged as forced")
	}
	if buy.enabledCalls != cfg.Cart.EnablePollAttempts {
		t.Errorf("enabled checks = %d, want %d", buy.enabledCalls, cfg.Cart.EnablePollAttempts)
	}
	if buy.forceCalls != 1 || buy.dispatchClicks != 1 {
		t.Errorf("force = %d, dispatch = %d; want 1, 1", buy.forceCalls, buy.dispatchClicks)
	}

	polls := 0
	for _, d := range s.calls {
		if d == cfg.Cart.EnablePollInterval {
			polls++
		}
	}
	// Settle pauses share the 1s default, so count settle + poll together:
	// scroll settle, 4 poll gaps, click settle.
	if want := 1 + (cfg.Cart.EnablePollAttempts - 1) + 1; polls != want {
		t.Errorf("1s pauses = %d, want %d", polls, want)
	}
}

func TestCart_ForcedClickThenNoConfirmationFails(t *testing.T) {
	cfg := testConfig()
	page := newFakePage()
	buy := &fakeElement{enabledAfter: -1}
	page.present[cfg.Cart.PurchaseSelector] = buy
	arts := newMemArtifacts()

	res := newTestCart(cfg.Cart, arts, &recordingSleeper{}).AddToCart(context.Background(), page, widgetTarget)

	if res.State != models.CartFailed {
		t.Fatalf("state = %s, want failed", res.State)
	}
	if res.LastGood != models.CartClicked {
		t.Errorf("last good state = %s, want clicked", res.LastGood)
	}
	if !res.Forced || buy.dispatchClicks != 1 {
		t.Errorf("forced = %v, dispatch = %d; want true, 1", res.Forced, buy.dispatchClicks)
	}
	if !models.IsCode(res.Err, models.ErrCodeCartInteraction) {
		t.Errorf("err = %v, want %s", res.Err, models.ErrCodeCartInteraction)
	}
	if len(arts.screenshots) != 0 {
		t.Errorf("no confirmation screenshot expected, got %v", keys(arts.screenshots))
	}
}

func TestCart_MissingControlFails(t *testing.T) {
	cfg := testConfig()
	res := newTestCart(cfg.Cart, newMemArtifacts(), &recordingSleeper{}).
		AddToCart(context.Background(), newFakePage(), widgetTarget)

	if res.State != models.CartFailed || res.LastGood != models.CartIdle {
		t.Errorf("state = %s, last good = %s; want failed after idle", res.State, res.LastGood)
	}
}

func TestCart_CapturesCartPage(t *testing.T) {
	cfg := testConfig()
	cfg.Cart.PageURL = "https://example/checkout/#/cart"
	page := newFakePage()
	page.present[cfg.Cart.PurchaseSelector] = &fakeElement{}
	page.visible[cfg.Cart.ConfirmSelector] = &fakeElement{}
	arts := newMemArtifacts()

	res := newTestCart(cfg.Cart, arts, &recordingSleeper{}).AddToCart(context.Background(), page, widgetTarget)

	if !res.Confirmed() {
		t.Fatalf("state = %s, err = %v", res.State, res.Err)
	}
	if len(page.navigations) != 1 || page.navigations[0] != cfg.Cart.PageURL {
		t.Errorf("navigations = %v", page.navigations)
	}
	for _, name := range []string{"modal_7.png", "cart_7.png"} {
		if _, ok := arts.screenshots[name]; !ok {
			t.Errorf("missing %s", name)
		}
	}
}

func TestCart_CartPageFailureKeepsConfirmation(t *testing.T) {
	cfg := testConfig()
	cfg.Cart.PageURL = "https://example/cart"
	page := newFakePage()
	page.present[cfg.Cart.PurchaseSelector] = &fakeElement{}
	page.visible[cfg.Cart.ConfirmSelector] = &fakeElement{}
	page.navErr[cfg.Cart.PageURL] = errWaitTimeout

	res := newTestCart(cfg.Cart, newMemArtifacts(), &recordingSleeper{}).AddToCart(context.Background(), page, widgetTarget)
	if !res.Confirmed() {
		t.Errorf("state = %s, want confirmed", res.State)
	}
}
