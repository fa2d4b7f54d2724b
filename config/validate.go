package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/andybalholm/cascadia"
)

// Validate checks selectors and timing values before any browser work
// starts, so a typo in an env var fails fast instead of timing out on
// every target.
func (c *Config) Validate() error {
	var errs []error

	selectors := map[string]string{
		"heading selector":  c.Fields.HeadingSelector,
		"purchase selector": c.Cart.PurchaseSelector,
		"confirm selector":  c.Cart.ConfirmSelector,
	}
	for i, s := range c.Overlay.Selectors {
		selectors[fmt.Sprintf("overlay selector %d", i)] = s
	}
	for name, s := range selectors {
		if _, err := cascadia.ParseGroup(s); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", name, s, err))
		}
	}

	if c.Fields.CurrencyMarker == "" {
		errs = append(errs, errors.New("currency marker must not be empty"))
	}
	if c.Fields.AvailabilityMarker == "" {
		errs = append(errs, errors.New("availability marker must not be empty"))
	}

	if c.Pacing.JitterMin < 0 || c.Pacing.JitterMax < c.Pacing.JitterMin {
		errs = append(errs, fmt.Errorf("jitter range [%v, %v] is invalid",
			c.Pacing.JitterMin, c.Pacing.JitterMax))
	}
	if c.Cart.EnablePollAttempts < 1 {
		errs = append(errs, fmt.Errorf("enable poll attempts must be >= 1, got %d",
			c.Cart.EnablePollAttempts))
	}
	if c.Timeouts.FieldPollInterval <= 0 {
		errs = append(errs, errors.New("field poll interval must be positive"))
	}
	for name, d := range map[string]time.Duration{
		"navigation timeout":     c.Timeouts.Navigation,
		"overlay timeout":        c.Timeouts.Overlay,
		"required field timeout": c.Timeouts.RequiredField,
		"cart locate timeout":    c.Timeouts.CartLocate,
		"confirm timeout":        c.Timeouts.Confirm,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	return errors.Join(errs...)
}
