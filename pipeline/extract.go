package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/cartprobe/config"
	"github.com/use-agent/cartprobe/markup"
	"github.com/use-agent/cartprobe/models"
	"github.com/use-agent/cartprobe/poll"
)

// FieldExtractor reads product fields from the page. Name and availability
// are required and waited for; prices are optional and fall back to
// models.NotAvailable.
type FieldExtractor struct {
	fields    config.FieldConfig
	timeout   time.Duration
	interval  time.Duration
	sleeper   poll.Sleeper
	artifacts Artifacts
	now       func() time.Time
	log       *slog.Logger
}

// NewFieldExtractor creates an extractor that polls required fields every
// interval for at most timeout.
func NewFieldExtractor(fields config.FieldConfig, timeout, interval time.Duration, s poll.Sleeper, a Artifacts, now func() time.Time, log *slog.Logger) *FieldExtractor {
	if now == nil {
		now = time.Now
	}
	return &FieldExtractor{
		fields:    fields,
		timeout:   timeout,
		interval:  interval,
		sleeper:   s,
		artifacts: a,
		now:       now,
		log:       log,
	}
}

// fieldQuery pulls one value out of a snapshot.
type fieldQuery func(s *markup.Snapshot) (string, bool)

// Extract collects the record for t. A missing required field yields a
// REQUIRED_FIELD_TIMEOUT error and no record. On success the page is
// screenshotted as <sequenceID>.png before returning.
func (e *FieldExtractor) Extract(ctx context.Context, page Page, t models.Target) (models.ExtractedRecord, error) {
	name, _, err := e.waitField(ctx, page, "productName", func(s *markup.Snapshot) (string, bool) {
		return s.Text(e.fields.HeadingSelector)
	})
	if err != nil {
		return models.ExtractedRecord{}, err
	}

	availability, snap, err := e.waitField(ctx, page, "availability", func(s *markup.Snapshot) (string, bool) {
		text, ok := s.MatchOwnText(e.fields.AvailabilityMarker)
		if !ok {
			return "", false
		}
		v := markup.AfterColon(text)
		return v, v != ""
	})
	if err != nil {
		return models.ExtractedRecord{}, err
	}

	rec := models.ExtractedRecord{
		URL:             t.URL,
		SequenceID:      t.SequenceID,
		ProductName:     name,
		OriginalPrice:   e.originalPrice(snap, t),
		DiscountedPrice: e.discountedPrice(snap, t),
		Availability:    availability,
		CollectedAt:     e.now(),
	}

	captureScreenshot(ctx, page, e.artifacts, e.log, t.SequenceID, t.SequenceID+".png")
	return rec, nil
}

// waitField polls fresh snapshots until q finds a value. It also returns
// the snapshot the value came from so optional fields can be read from
// the same settled page state.
func (e *FieldExtractor) waitField(ctx context.Context, page Page, field string, q fieldQuery) (string, *markup.Snapshot, error) {
	var (
		value string
		snap  *markup.Snapshot
	)
	err := poll.Until(ctx, e.sleeper, e.interval, poll.Attempts(e.timeout, e.interval), func(ctx context.Context) (bool, error) {
		raw, err := page.HTML(ctx)
		if err != nil {
			return false, err
		}
		s, err := markup.Parse(raw)
		if err != nil {
			return false, nil
		}
		v, ok := q(s)
		if ok {
			value, snap = v, s
		}
		return ok, nil
	})
	switch {
	case err == nil:
		return value, snap, nil
	case errors.Is(err, poll.ErrExhausted):
		return "", nil, models.NewScrapeError(
			models.ErrCodeRequiredFieldTimeout,
			fmt.Sprintf("%s not found within %v", field, e.timeout),
			nil,
		)
	default:
		return "", nil, err
	}
}

func (e *FieldExtractor) discountedPrice(s *markup.Snapshot, t models.Target) string {
	if text, ok := s.MatchOwnText(e.fields.CurrencyMarker, e.fields.CashMarker); ok {
		return text
	}
	e.log.Warn("cash price not found",
		"seq", t.SequenceID, "code", models.ErrCodeOptionalFieldMissing)
	return models.NotAvailable
}

func (e *FieldExtractor) originalPrice(s *markup.Snapshot, t models.Target) string {
	pattern := e.fields.OriginalPattern()
	if text, ok := s.MatchOwnWord(pattern); ok {
		if v, ok := markup.After(text, pattern, e.fields.OriginalPrefix); ok && v != "" {
			return v
		}
	}
	e.log.Warn("original price not found",
		"seq", t.SequenceID, "code", models.ErrCodeOptionalFieldMissing)
	return models.NotAvailable
}
