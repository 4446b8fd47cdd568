package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kickoff/storefront-api/internal/api/metrics"
	"github.com/kickoff/storefront-api/internal/core/domain"
)

const queueBuffer = 256

// AuditStore is the persistence boundary for audit entries (Mongo in
// production).
type AuditStore interface {
	Insert(ctx context.Context, entry domain.AuditEntry) error
}

// AuditWriter decouples audit persistence from the request path. Record never
// blocks: entries go into a buffered channel drained by a single worker, and
// are dropped (with a metric) when the buffer is full. A lost audit entry
// must never fail the operation that produced it.
type AuditWriter struct {
	entries chan domain.AuditEntry
	store   AuditStore
	log     zerolog.Logger
}

// NewAuditWriter creates an AuditWriter; call Start before recording.
func NewAuditWriter(store AuditStore, log zerolog.Logger) *AuditWriter {
	return &AuditWriter{
		entries: make(chan domain.AuditEntry, queueBuffer),
		store:   store,
		log:     log,
	}
}

// Start launches the worker goroutine. The worker stops when ctx is cancelled.
func (w *AuditWriter) Start(ctx context.Context) {
	go w.run(ctx)
}

// Record enqueues an entry for persistence. Fire-and-forget by contract.
func (w *AuditWriter) Record(_ context.Context, entry domain.AuditEntry) {
	select {
	case w.entries <- entry:
	default:
		metrics.AuditEntriesDroppedTotal.Inc()
		w.log.Warn().Str("action", entry.Action).Msg("audit queue full, entry dropped")
	}
}

func (w *AuditWriter) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-w.entries:
			if !ok {
				return
			}
			if err := w.store.Insert(ctx, entry); err != nil {
				w.log.Error().Err(err).
					Str("action", entry.Action).
					Str("account_id", entry.AccountID).
					Msg("audit write failed")
			}
		}
	}
}
