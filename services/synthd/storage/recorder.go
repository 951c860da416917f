package storage

import (
	"context"
	"log/slog"
	"time"

	"synthvault/core/events"
	"synthvault/core/types"
)

// Recorder adapts the audit store to the engine's emitter interface. Emission
// is best-effort: a failed insert is logged and never propagates back into the
// engine operation that produced the event.
type Recorder struct {
	store   *Storage
	logger  *slog.Logger
	timeout time.Duration
}

// NewRecorder wires the store behind an events.Emitter.
func NewRecorder(store *Storage, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger, timeout: 5 * time.Second}
}

// Emit implements events.Emitter.
func (r *Recorder) Emit(event events.Event) {
	if r == nil || r.store == nil || event == nil {
		return
	}
	carrier, ok := event.(interface{ Event() *types.Event })
	if !ok {
		r.logger.Warn("dropping untyped event", "type", event.EventType())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := r.store.RecordEvent(ctx, carrier.Event()); err != nil {
		r.logger.Error("record audit event", "type", event.EventType(), "error", err)
	}
}
