package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// Outcome classifies one delivery attempt. Only OutcomeDelivered counts as
// success; every other outcome is reported as a non-fatal warning and the
// record is still retained locally.
type Outcome string

const (
	OutcomeDelivered      Outcome = "success"
	OutcomeNotConfigured  Outcome = "no_webhook"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeTransportError Outcome = "error"
)

// DeliveryError tells the user which stage of delivery failed. Local state
// is never affected.
type DeliveryError struct {
	Outcome Outcome
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery %s: %v", e.Outcome, e.Err)
	}
	return "delivery " + string(e.Outcome)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

const defaultWebhookTimeout = 10 * time.Second

// Webhook posts finished records to the configured delivery endpoint,
// fire-and-forget from the engine's perspective.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a delivery endpoint is set.
func (w *Webhook) Configured() bool {
	return w != nil && w.url != ""
}

// Deliver posts the record and classifies the outcome. The record's
// webhook status is set to the outcome either way.
func (w *Webhook) Deliver(ctx context.Context, rec *Record) (Outcome, error) {
	outcome, err := w.deliver(ctx, rec)
	rec.WebhookStatus = outcome
	if outcome == OutcomeDelivered {
		return outcome, nil
	}
	return outcome, &DeliveryError{Outcome: outcome, Err: err}
}

func (w *Webhook) deliver(ctx context.Context, rec *Record) (Outcome, error) {
	if !w.Configured() {
		return OutcomeNotConfigured, errors.New("no webhook configured")
	}

	payload, err := sonic.Marshal(rec)
	if err != nil {
		return OutcomeTransportError, fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return OutcomeTransportError, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return OutcomeTimeout, err
		}
		return OutcomeTransportError, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return OutcomeTransportError, fmt.Errorf("webhook returned %s", resp.Status)
	}
	return OutcomeDelivered, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
