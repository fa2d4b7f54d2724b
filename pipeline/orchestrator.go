package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/cartprobe/config"
	"github.com/use-agent/cartprobe/logging"
	"github.com/use-agent/cartprobe/models"
	"github.com/use-agent/cartprobe/poll"
	"golang.org/x/time/rate"
)

// TargetOutcome is what happened to one Target.
type TargetOutcome struct {
	Target models.Target

	// Record is nil when extraction failed.
	Record *models.ExtractedRecord

	// Cart is the add-to-cart result; zero when the cart step did not run.
	Cart models.CartResult

	// Err is the reason no record was produced.
	Err error
}

// Report is the result of one Run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Records is the ResultSet: append-only, at most one per Target.
	Records  []models.ExtractedRecord
	Outcomes []TargetOutcome

	// ExportPath is where the sink wrote Records; empty when nothing was
	// collected or the export failed.
	ExportPath string
}

// Summary counts for logs and notifications.
type Summary struct {
	RunID         string        `json:"run_id"`
	Targets       int           `json:"targets"`
	Collected     int           `json:"collected"`
	Failed        int           `json:"failed"`
	CartConfirmed int           `json:"cart_confirmed"`
	CartForced    int           `json:"cart_forced"`
	ExportPath    string        `json:"export_path,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
}

// Summary aggregates the report.
func (r *Report) Summary() Summary {
	s := Summary{
		RunID:      r.RunID,
		Targets:    len(r.Outcomes),
		Collected:  len(r.Records),
		ExportPath: r.ExportPath,
		Duration:   r.FinishedAt.Sub(r.StartedAt),
	}
	for _, o := range r.Outcomes {
		if o.Err != nil {
			s.Failed++
		}
		if o.Cart.Confirmed() {
			s.CartConfirmed++
		}
		if o.Cart.Forced {
			s.CartForced++
		}
	}
	return s
}

// Deps are the collaborators of an Orchestrator. Page, Artifacts and Sink
// are required; the rest default to production behavior.
type Deps struct {
	Page      Page
	Artifacts Artifacts
	Sink      Sink

	Sleeper poll.Sleeper
	Delayer Delayer
	Limiter *rate.Limiter
	Logger  *slog.Logger
	Now     func() time.Time
	RunID   string
}

// Orchestrator runs the per-target sequence over a worklist.
type Orchestrator struct {
	page         Page
	artifacts    Artifacts
	sink         Sink
	overlays     *OverlayDismisser
	extractor    *FieldExtractor
	cart         *CartInteractor
	delay        Delayer
	limiter      *rate.Limiter
	sleeper      poll.Sleeper
	scrollSettle time.Duration
	now          func() time.Time
	runID        string
	log          *slog.Logger
}

// New wires the pipeline components from cfg.
func New(cfg *config.Config, deps Deps) *Orchestrator {
	if deps.Sleeper == nil {
		deps.Sleeper = poll.RealSleeper
	}
	if deps.Delayer == nil {
		deps.Delayer = NewJitterDelayer(cfg.Pacing.JitterMin, cfg.Pacing.JitterMax, deps.Sleeper)
	}
	if deps.Limiter == nil {
		deps.Limiter = NewNavigationLimiter(cfg.Pacing.MinNavInterval)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.RunID == "" {
		deps.RunID = uuid.NewString()
	}
	log := deps.Logger.With("run", deps.RunID)

	o := &Orchestrator{
		page:         deps.Page,
		artifacts:    deps.Artifacts,
		sink:         deps.Sink,
		delay:        deps.Delayer,
		limiter:      deps.Limiter,
		sleeper:      deps.Sleeper,
		scrollSettle: cfg.Pacing.ScrollSettle,
		now:          deps.Now,
		runID:        deps.RunID,
		log:          log,
		overlays: NewOverlayDismisser(cfg.Overlay.Selectors,
			cfg.Timeouts.Overlay, cfg.Overlay.Settle, deps.Sleeper, log),
		extractor: NewFieldExtractor(cfg.Fields,
			cfg.Timeouts.RequiredField, cfg.Timeouts.FieldPollInterval,
			deps.Sleeper, deps.Artifacts, deps.Now, log),
	}
	if cfg.Cart.Enabled {
		o.cart = NewCartInteractor(cfg.Cart,
			cfg.Timeouts.CartLocate, cfg.Timeouts.Confirm,
			deps.Sleeper, deps.Artifacts, log)
	}
	return o
}

// NewNavigationLimiter allows one navigation per interval. A non-positive
// interval disables pacing.
func NewNavigationLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Run processes targets in order and flushes collected records to the
// sink once, at the end.
//
// Failures of a single target are recorded on its outcome and the run
// moves on. A browser crash, a cancelled context or a panic aborts the
// remaining targets with a GLOBAL_FAILURE error; records gathered before
// that point are still flushed. The report is always returned.
func (o *Orchestrator) Run(ctx context.Context, targets []models.Target) (*Report, error) {
	report := &Report{RunID: o.runID, StartedAt: o.now()}
	o.log.Info("collection started", "targets", len(targets))

	runErr := o.processAll(ctx, targets, report)
	if runErr != nil {
		logging.Critical(o.log, "collection aborted", "error", runErr)
	}

	var flushErr error
	if len(report.Records) == 0 {
		o.log.Warn("no items were collected")
	} else {
		path, err := o.sink.Flush(report.Records)
		if err != nil {
			flushErr = models.NewScrapeError(models.ErrCodeExport, "failed to export records", err)
			o.log.Error("export failed", "error", err)
		} else {
			report.ExportPath = path
			o.log.Info("items collected", "count", len(report.Records), "path", path)
		}
	}

	report.FinishedAt = o.now()
	o.log.Info("collection finished", "duration", report.FinishedAt.Sub(report.StartedAt).String())
	return report, errors.Join(runErr, flushErr)
}

func (o *Orchestrator) processAll(ctx context.Context, targets []models.Target, report *Report) (err error) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Debug("panic stack", "stack", string(debug.Stack()))
			err = models.NewScrapeError(models.ErrCodeGlobalFailure, fmt.Sprintf("panic: %v", r), nil)
		}
	}()

	for _, t := range targets {
		outcome := o.processTarget(ctx, t)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Record != nil {
			report.Records = append(report.Records, *outcome.Record)
		}
		if o.escapes(ctx, outcome.Err) {
			return models.NewScrapeError(
				models.ErrCodeGlobalFailure,
				"aborting after target "+t.SequenceID,
				outcome.Err,
			)
		}
	}
	return nil
}

// escapes reports whether err must stop the whole batch rather than just
// the current target.
func (o *Orchestrator) escapes(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	return ctx.Err() != nil || models.IsCode(err, models.ErrCodeBrowserCrash)
}

// processTarget runs the fixed step sequence for one target.
func (o *Orchestrator) processTarget(ctx context.Context, t models.Target) TargetOutcome {
	out := TargetOutcome{Target: t}
	log := o.log.With("seq", t.SequenceID)
	log.Info("processing item", "url", t.URL)

	if err := o.delay.Delay(ctx); err != nil {
		out.Err = err
		return out
	}
	if err := o.limiter.Wait(ctx); err != nil {
		out.Err = err
		return out
	}
	if err := o.page.Navigate(ctx, t.URL); err != nil {
		if models.CodeOf(err) == "" {
			err = models.NewScrapeError(models.ErrCodeNavigation, "navigation to target URL failed", err)
		}
		log.Error("navigation failed", "error", err)
		out.Err = err
		return out
	}
	if err := o.delay.Delay(ctx); err != nil {
		out.Err = err
		return out
	}

	o.overlays.Dismiss(ctx, o.page)
	if err := o.page.ScrollViewport(ctx); err != nil {
		log.Debug("settle scroll failed", "error", err)
	}
	if err := o.sleeper.Sleep(ctx, o.scrollSettle); err != nil {
		out.Err = err
		return out
	}
	o.overlays.Dismiss(ctx, o.page)

	rec, err := o.extractor.Extract(ctx, o.page, t)
	if err != nil {
		log.Error("extraction failed", "error", err)
		if models.IsCode(err, models.ErrCodeRequiredFieldTimeout) {
			captureMarkup(ctx, o.page, o.artifacts, log, t.SequenceID)
		}
		out.Err = err
		return out
	}
	out.Record = &rec
	log.Info("item collected",
		"product", rec.ProductName,
		"discounted", rec.DiscountedPrice,
		"original", rec.OriginalPrice,
		"availability", rec.Availability,
	)

	if o.cart == nil {
		return out
	}
	out.Cart = o.cart.AddToCart(ctx, o.page, t)
	if out.Cart.Confirmed() {
		log.Info("added to cart", "forced", out.Cart.Forced)
	} else {
		log.Warn("add to cart failed", "forced", out.Cart.Forced, "error", out.Cart.Err)
	}
	return out
}
