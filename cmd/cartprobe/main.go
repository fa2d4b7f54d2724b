package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/use-agent/cartprobe/artifact"
	"github.com/use-agent/cartprobe/config"
	"github.com/use-agent/cartprobe/export"
	"github.com/use-agent/cartprobe/logging"
	"github.com/use-agent/cartprobe/pipeline"
	"github.com/use-agent/cartprobe/poll"
	"github.com/use-agent/cartprobe/scraper"
	"github.com/use-agent/cartprobe/webhook"
)

func main() {
	os.Exit(run())
}

func run() int {
	started := time.Now()

	// ── 1. Load and validate configuration ──────────────────────────
	envLoaded, err := config.LoadEnvFile(os.Getenv("CARTPROBE_ENV_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read env file: %v\n", err)
		return 2
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 2
	}
	targets, err := cfg.LoadTargets()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid targets: %v\n", err)
		return 2
	}

	// ── 2. Prepare the run directory ────────────────────────────────
	runDir, err := artifact.NewRunDir(cfg.Output.BaseDir, started)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	// ── 3. Initialise logging: debug to file, configured level to console
	logFile, err := os.OpenFile(filepath.Join(runDir, artifact.LogFile),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		return 1
	}
	defer logFile.Close()

	log := logging.New(logFile, os.Stderr, logging.ParseLevel(cfg.Log.Level))
	slog.SetDefault(log)
	log.Info("cartprobe starting",
		"runDir", runDir,
		"targets", len(targets),
		"headless", cfg.Browser.Headless,
		"cart", cfg.Cart.Enabled,
		"envFile", envLoaded,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 4. Launch the browser ───────────────────────────────────────
	session, err := scraper.NewSession(cfg.Browser, cfg.Timeouts.Navigation, log)
	if err != nil {
		logging.Critical(log, "failed to start browser", "error", err)
		return 1
	}
	defer session.Close()

	page, err := session.NewPage()
	if err != nil {
		logging.Critical(log, "failed to open page", "error", err)
		return 1
	}
	defer page.Close()

	// ── 5. Run the collection ───────────────────────────────────────
	orch := pipeline.New(cfg, pipeline.Deps{
		Page:      page,
		Artifacts: artifact.NewStore(runDir, log),
		Sink:      export.NewXLSXSink(runDir),
		Logger:    log,
	})
	report, runErr := orch.Run(ctx, targets)

	summary := report.Summary()
	log.Info("run summary",
		"run", summary.RunID,
		"collected", summary.Collected,
		"failed", summary.Failed,
		"cartConfirmed", summary.CartConfirmed,
		"cartForced", summary.CartForced,
		"export", summary.ExportPath,
		"duration", summary.Duration.Round(time.Millisecond),
	)

	// ── 6. Notify ───────────────────────────────────────────────────
	if cfg.Webhook.URL != "" {
		ev := &webhook.Event{
			Type:      webhook.EventRunCompleted,
			RunID:     summary.RunID,
			Timestamp: time.Now().Unix(),
			Data:      summary,
		}
		if runErr != nil {
			ev.Type = webhook.EventRunFailed
			ev.Error = runErr.Error()
		}
		// The run context may already be cancelled; notification still goes out.
		wctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		_ = webhook.DeliverWithRetry(wctx, poll.RealSleeper, log, cfg.Webhook.URL, cfg.Webhook.Secret, ev)
		cancel()
	}

	if runErr != nil {
		return 1
	}
	return 0
}
