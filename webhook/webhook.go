// Package webhook posts signed run notifications.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/cartprobe/poll"
)

// Event types.
const (
	EventRunCompleted = "run.completed"
	EventRunFailed    = "run.failed"
)

// SignatureHeader carries "sha256=<hex HMAC of body>" when a secret is set.
const SignatureHeader = "X-Cartprobe-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	RunID     string `json:"run_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
	Error     string `json:"error,omitempty"`
}

// retryDelays are the pauses before each delivery attempt.
var retryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event once.
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Cartprobe-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverWithRetry sends event, retrying failed attempts after 1s and 5s.
// It blocks so the notification goes out before the process exits.
func DeliverWithRetry(ctx context.Context, s poll.Sleeper, log *slog.Logger, url, secret string, event *Event) error {
	var err error
	for attempt, delay := range retryDelays {
		if delay > 0 {
			if serr := s.Sleep(ctx, delay); serr != nil {
				return serr
			}
		}
		if err = Deliver(ctx, url, secret, event); err == nil {
			log.Info("webhook delivered",
				"url", url,
				"event", event.Type,
				"attempt", attempt+1,
			)
			return nil
		}
		log.Warn("webhook delivery failed",
			"url", url,
			"event", event.Type,
			"attempt", attempt+1,
			"error", err,
		)
	}
	log.Error("webhook delivery exhausted all retries", "url", url, "event", event.Type)
	return err
}
