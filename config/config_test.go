package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/cartprobe/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Timeouts.Overlay != 2*time.Second {
		t.Errorf("overlay timeout = %v, want 2s", cfg.Timeouts.Overlay)
	}
	if cfg.Timeouts.CartLocate != 20*time.Second {
		t.Errorf("cart locate timeout = %v, want 20s", cfg.Timeouts.CartLocate)
	}
	if cfg.Cart.EnablePollAttempts != 5 {
		t.Errorf("enable poll attempts = %d, want 5", cfg.Cart.EnablePollAttempts)
	}
	if len(cfg.Overlay.Selectors) != 4 {
		t.Errorf("overlay selectors = %d, want 4", len(cfg.Overlay.Selectors))
	}
	if got := cfg.Fields.OriginalPattern(); got != "de R$" {
		t.Errorf("original pattern = %q, want %q", got, "de R$")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CARTPROBE_HEADLESS", "true")
	t.Setenv("CARTPROBE_CONFIRM_TIMEOUT", "3s")
	t.Setenv("CARTPROBE_OVERLAY_SELECTORS", ".a, .b; #c")
	t.Setenv("CARTPROBE_ENABLE_POLL_ATTEMPTS", "not-a-number")

	cfg := Load()

	if !cfg.Browser.Headless {
		t.Error("headless override not applied")
	}
	if cfg.Timeouts.Confirm != 3*time.Second {
		t.Errorf("confirm timeout = %v, want 3s", cfg.Timeouts.Confirm)
	}
	want := []string{".a, .b", "#c"}
	if len(cfg.Overlay.Selectors) != len(want) {
		t.Fatalf("overlay selectors = %v, want %v", cfg.Overlay.Selectors, want)
	}
	for i := range want {
		if cfg.Overlay.Selectors[i] != want[i] {
			t.Errorf("selector[%d] = %q, want %q", i, cfg.Overlay.Selectors[i], want[i])
		}
	}
	if cfg.Cart.EnablePollAttempts != 5 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.Cart.EnablePollAttempts)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad selector", func(c *Config) { c.Cart.PurchaseSelector = "##" }, "purchase selector"},
		{"bad overlay", func(c *Config) { c.Overlay.Selectors = []string{"[unclosed"} }, "overlay selector 0"},
		{"jitter range", func(c *Config) { c.Pacing.JitterMax = time.Millisecond }, "jitter range"},
		{"poll attempts", func(c *Config) { c.Cart.EnablePollAttempts = 0 }, "enable poll attempts"},
		{"timeout", func(c *Config) { c.Timeouts.Confirm = 0 }, "confirm timeout"},
		{"marker", func(c *Config) { c.Fields.AvailabilityMarker = "" }, "availability marker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseTargets(t *testing.T) {
	data := []byte(`
- url: https://example/product/42
  sequence_id: "7"
- url: https://example/product/43
  sequence_id: "8"
`)
	targets, err := ParseTargets(data)
	if err != nil {
		t.Fatalf("ParseTargets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2", len(targets))
	}
	if targets[0].URL != "https://example/product/42" || targets[0].SequenceID != "7" {
		t.Errorf("unexpected first target: %+v", targets[0])
	}
}

func TestParseTargets_JSON(t *testing.T) {
	targets, err := ParseTargets([]byte(`[{"url": "https://example/p/1", "sequence_id": "1"}]`))
	if err != nil {
		t.Fatalf("ParseTargets: %v", err)
	}
	if len(targets) != 1 || targets[0].SequenceID != "1" {
		t.Errorf("unexpected targets: %+v", targets)
	}
}

func TestParseTargets_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty list", `[]`},
		{"missing url", `[{"sequence_id": "1"}]`},
		{"missing sequence", `[{"url": "https://example/p"}]`},
		{"path in sequence", `[{"url": "https://example/p", "sequence_id": "../x"}]`},
		{"duplicate", `[{"url": "https://a", "sequence_id": "1"}, {"url": "https://b", "sequence_id": "1"}]`},
		{"not yaml", `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTargets([]byte(tt.data))
			if !models.IsCode(err, models.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want %s", err, models.ErrCodeInvalidInput)
			}
		})
	}
}

func TestLoadTargets(t *testing.T) {
	cfg := Load()
	targets, err := cfg.LoadTargets()
	if err != nil {
		t.Fatalf("LoadTargets: %v", err)
	}
	if len(targets) != len(DefaultTargets) {
		t.Errorf("expected default worklist, got %d targets", len(targets))
	}

	path := filepath.Join(t.TempDir(), "targets.yaml")
	if err := os.WriteFile(path, []byte("- url: https://example/p\n  sequence_id: \"9\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.TargetsFile = path
	targets, err = cfg.LoadTargets()
	if err != nil {
		t.Fatalf("LoadTargets(file): %v", err)
	}
	if len(targets) != 1 || targets[0].SequenceID != "9" {
		t.Errorf("unexpected targets from file: %+v", targets)
	}

	cfg.TargetsFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.LoadTargets(); !models.IsCode(err, models.ErrCodeInvalidInput) {
		t.Errorf("missing file err = %v, want %s", err, models.ErrCodeInvalidInput)
	}
}
