package sink

import (
	"context"
	"log/slog"
)

// Saver runs the full save: webhook delivery first, then the CSV mirror.
// The mirror is written whatever the delivery outcome was, and its own
// failure only logs a warning.
type Saver struct {
	webhook *Webhook
	debug   *DebugStore
}

func NewSaver(webhook *Webhook, debug *DebugStore) *Saver {
	return &Saver{webhook: webhook, debug: debug}
}

// Save delivers the record and mirrors it locally. The returned error is a
// *DeliveryError for anything but OutcomeDelivered; the caller surfaces it
// as a warning, never as a lost record.
func (s *Saver) Save(ctx context.Context, rec *Record) (Outcome, error) {
	outcome, err := s.webhook.Deliver(ctx, rec)

	if s.debug != nil {
		if derr := s.debug.Append(rec); derr != nil {
			slog.Warn("debug csv append failed", "error", derr)
		}
	}
	return outcome, err
}
