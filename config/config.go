package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Browser  BrowserConfig
	Timeouts TimeoutConfig
	Overlay  OverlayConfig
	Fields   FieldConfig
	Cart     CartConfig
	Pacing   PacingConfig
	Output   OutputConfig
	Log      LogConfig
	Webhook  WebhookConfig

	// TargetsFile optionally points at a YAML/JSON worklist that replaces
	// the built-in one.
	TargetsFile string
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: false (the collection runs in a visible window)

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL for the whole session.
	Proxy string

	// WindowWidth and WindowHeight size the viewport used for screenshots.
	WindowWidth  int // default: 1366
	WindowHeight int // default: 900

	// BlockAds drops requests to known ad/tracking domains.
	BlockAds bool // default: true

	// BlockedResourceTypes lists resource types to block. Images and
	// stylesheets are left alone since screenshots need them.
	// default: ["Media"]
	BlockedResourceTypes []string
}

// TimeoutConfig holds every bounded wait of the pipeline.
type TimeoutConfig struct {
	// Navigation is the deadline for page.Navigate plus load.
	Navigation time.Duration // default: 45s

	// Overlay is how long each overlay selector may take to become clickable.
	Overlay time.Duration // default: 2s

	// RequiredField bounds the product name and availability waits.
	RequiredField time.Duration // default: 10s

	// FieldPollInterval is the spacing between required-field attempts.
	FieldPollInterval time.Duration // default: 500ms

	// CartLocate bounds the wait for the purchase control to exist.
	CartLocate time.Duration // default: 20s

	// Confirm bounds the wait for the cart confirmation panel.
	Confirm time.Duration // default: 10s
}

// OverlayConfig lists overlay dismissal selectors in priority order.
type OverlayConfig struct {
	Selectors []string

	// Settle is the pause after a successful dismissal.
	Settle time.Duration // default: 500ms
}

// FieldConfig describes where product fields live on the page.
type FieldConfig struct {
	HeadingSelector    string // default: "h1"
	CurrencyMarker     string // default: "R$"
	CashMarker         string // default: "à vista"
	OriginalPrefix     string // default: "de "
	AvailabilityMarker string // default: "Disponibilidade:"
}

// OriginalPattern is the text an original-price element must contain.
func (f FieldConfig) OriginalPattern() string {
	return f.OriginalPrefix + f.CurrencyMarker
}

// CartConfig controls the add-to-cart interaction.
type CartConfig struct {
	// Enabled toggles the cart step entirely.
	Enabled bool // default: true

	// PurchaseSelector locates the add-to-cart control.
	PurchaseSelector string

	// ConfirmSelector is the element whose visibility confirms the add.
	ConfirmSelector string

	// EnablePollAttempts is how many times the enabled state is checked.
	EnablePollAttempts int // default: 5

	// EnablePollInterval is the spacing between enabled checks.
	EnablePollInterval time.Duration // default: 1s

	// Settle is the pause after scrolling the control into view and after clicking.
	Settle time.Duration // default: 1s

	// PageURL, when set, is visited after a confirmed add for a cart screenshot.
	PageURL string
}

// PacingConfig controls the randomized delays around navigation.
type PacingConfig struct {
	JitterMin time.Duration // default: 2s
	JitterMax time.Duration // default: 5s

	// MinNavInterval is the minimum spacing between two navigations.
	MinNavInterval time.Duration // default: 10s

	// ScrollSettle is the pause after the layout-settling scroll.
	ScrollSettle time.Duration // default: 1500ms
}

// OutputConfig controls where run artifacts go.
type OutputConfig struct {
	// BaseDir is the parent of each run's timestamped directory.
	BaseDir string // default: "coletas"
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is the console level; the file log is always debug.
	Level string // default: "info"
}

// WebhookConfig controls the end-of-run notification.
type WebhookConfig struct {
	URL    string
	Secret string
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:     envBoolOr("CARTPROBE_HEADLESS", false),
			NoSandbox:    envBoolOr("CARTPROBE_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("CARTPROBE_BROWSER_BIN"),
			Proxy:        os.Getenv("CARTPROBE_PROXY"),
			WindowWidth:  envIntOr("CARTPROBE_WINDOW_WIDTH", 1366),
			WindowHeight: envIntOr("CARTPROBE_WINDOW_HEIGHT", 900),
			BlockAds:     envBoolOr("CARTPROBE_BLOCK_ADS", true),
			BlockedResourceTypes: envSliceOr("CARTPROBE_BLOCKED_RESOURCES", []string{
				"Media",
			}),
		},
		Timeouts: TimeoutConfig{
			Navigation:        envDurationOr("CARTPROBE_NAV_TIMEOUT", 45*time.Second),
			Overlay:           envDurationOr("CARTPROBE_OVERLAY_TIMEOUT", 2*time.Second),
			RequiredField:     envDurationOr("CARTPROBE_FIELD_TIMEOUT", 10*time.Second),
			FieldPollInterval: envDurationOr("CARTPROBE_FIELD_POLL_INTERVAL", 500*time.Millisecond),
			CartLocate:        envDurationOr("CARTPROBE_CART_LOCATE_TIMEOUT", 20*time.Second),
			Confirm:           envDurationOr("CARTPROBE_CONFIRM_TIMEOUT", 10*time.Second),
		},
		Overlay: OverlayConfig{
			Selectors: envSliceOr("CARTPROBE_OVERLAY_SELECTORS", []string{
				"button[class*='close']",
				"div[class*='newsletter'] [class*='close']",
				"[id*='cookie'] button, [class*='cookie'] button",
				".vtex-modal-layout-0-x-closeButton",
			}),
			Settle: envDurationOr("CARTPROBE_OVERLAY_SETTLE", 500*time.Millisecond),
		},
		Fields: FieldConfig{
			HeadingSelector:    envOr("CARTPROBE_HEADING_SELECTOR", "h1"),
			CurrencyMarker:     envOr("CARTPROBE_CURRENCY_MARKER", "R$"),
			CashMarker:         envOr("CARTPROBE_CASH_MARKER", "à vista"),
			OriginalPrefix:     envOr("CARTPROBE_ORIGINAL_PREFIX", "de "),
			AvailabilityMarker: envOr("CARTPROBE_AVAILABILITY_MARKER", "Disponibilidade:"),
		},
		Cart: CartConfig{
			Enabled:            envBoolOr("CARTPROBE_CART_ENABLED", true),
			PurchaseSelector:   envOr("CARTPROBE_PURCHASE_SELECTOR", "#add-to-cart-button"),
			ConfirmSelector:    envOr("CARTPROBE_CONFIRM_SELECTOR", ".minicart-summary"),
			EnablePollAttempts: envIntOr("CARTPROBE_ENABLE_POLL_ATTEMPTS", 5),
			EnablePollInterval: envDurationOr("CARTPROBE_ENABLE_POLL_INTERVAL", time.Second),
			Settle:             envDurationOr("CARTPROBE_CART_SETTLE", time.Second),
			PageURL:            os.Getenv("CARTPROBE_CART_PAGE_URL"),
		},
		Pacing: PacingConfig{
			JitterMin:      envDurationOr("CARTPROBE_JITTER_MIN", 2*time.Second),
			JitterMax:      envDurationOr("CARTPROBE_JITTER_MAX", 5*time.Second),
			MinNavInterval: envDurationOr("CARTPROBE_MIN_NAV_INTERVAL", 10*time.Second),
			ScrollSettle:   envDurationOr("CARTPROBE_SCROLL_SETTLE", 1500*time.Millisecond),
		},
		Output: OutputConfig{
			BaseDir: envOr("CARTPROBE_OUTPUT_DIR", "coletas"),
		},
		Log: LogConfig{
			Level: envOr("CARTPROBE_LOG_LEVEL", "info"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("CARTPROBE_WEBHOOK_URL"),
			Secret: os.Getenv("CARTPROBE_WEBHOOK_SECRET"),
		},
		TargetsFile: os.Getenv("CARTPROBE_TARGETS_FILE"),
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envSliceOr splits on ";" because CSS selector lists use ",".
func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ";")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
