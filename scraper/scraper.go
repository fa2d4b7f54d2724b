package scraper

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/cartprobe/config"
	"github.com/use-agent/cartprobe/models"
)

// Session owns the run's single browser process. Close releases it and
// is safe to call more than once.
type Session struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	cfg        config.BrowserConfig
	navTimeout time.Duration
	log        *slog.Logger
	closeOnce  sync.Once
}

// NewSession launches the browser and connects to it.
func NewSession(cfg config.BrowserConfig, navTimeout time.Duration, log *slog.Logger) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	l.Set(flags.Flag("disable-notifications"))
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("disable-default-apps"))
	if !cfg.Headless {
		l.Set(flags.Flag("start-maximized"))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	log.Debug("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	return &Session{
		launcher:   l,
		browser:    browser,
		cfg:        cfg,
		navTimeout: navTimeout,
		log:        log,
	}, nil
}

// NewPage opens the tab the pipeline drives, sized for screenshots and
// with request blocking installed.
func (s *Session) NewPage() (*Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to open page",
			err,
		)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.WindowWidth,
		Height:            s.cfg.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		s.log.Warn("setting viewport failed, using browser default", "error", err)
	}

	return &Page{
		page:       page,
		session:    s,
		router:     setupHijack(page, s.cfg.BlockedResourceTypes, s.cfg.BlockAds),
		navTimeout: s.navTimeout,
	}, nil
}

// alive reports whether the browser still answers protocol calls.
func (s *Session) alive() bool {
	_, err := proto.BrowserGetVersion{}.Call(s.browser)
	return err == nil
}

// Close closes the browser and removes its temporary profile. Only the
// first call has any effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.log.Debug("closing browser")
		if err := s.browser.Close(); err != nil {
			s.log.Warn("browser close failed, killing process", "error", err)
			s.launcher.Kill()
		}
		s.launcher.Cleanup()
		s.log.Debug("browser closed")
	})
}
