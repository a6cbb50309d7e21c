package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgerpipe/ledgerpipe/internal/apperrors"
	portsrepo "github.com/ledgerpipe/ledgerpipe/internal/core/ports/repositories"
	portssvc "github.com/ledgerpipe/ledgerpipe/internal/core/ports/services"
)

// TimeoutFailureReason is recorded on intents abandoned by the sweep.
const TimeoutFailureReason = "timeout"

// RetryWorkerConfig tunes the reconciliation sweep.
type RetryWorkerConfig struct {
	// Interval between sweeps.
	Interval time.Duration
	// GracePeriod an intent must have been pending before it is retried,
	// so the sweep does not race the synchronous posting attempt.
	GracePeriod time.Duration
	// MaxAge after which a still-pending intent is failed with reason
	// "timeout" instead of retried.
	MaxAge time.Duration
	// BatchSize caps the number of intents examined per sweep.
	BatchSize int
}

// RetryWorker periodically re-examines intents stuck in PENDING and drives
// them to a terminal state. Retries reuse each intent's original idempotency
// key, so a crash mid-posting can never move money twice.
type RetryWorker struct {
	intentRepo portsrepo.IntentRepositoryFacade
	intentSvc  portssvc.IntentSvcFacade
	cfg        RetryWorkerConfig
	logger     *slog.Logger
}

// NewRetryWorker creates a new RetryWorker.
func NewRetryWorker(intentRepo portsrepo.IntentRepositoryFacade, intentSvc portssvc.IntentSvcFacade, cfg RetryWorkerConfig, logger *slog.Logger) *RetryWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 5 * time.Second
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 15 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &RetryWorker{
		intentRepo: intentRepo,
		intentSvc:  intentSvc,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (w *RetryWorker) Run(ctx context.Context) {
	w.logger.Info("Reconciliation worker started",
		slog.Duration("interval", w.cfg.Interval),
		slog.Duration("grace_period", w.cfg.GracePeriod),
		slog.Duration("max_age", w.cfg.MaxAge),
	)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Reconciliation worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one reconciliation pass.
func (w *RetryWorker) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	intents, err := w.intentRepo.ListPendingOlderThan(ctx, now.Add(-w.cfg.GracePeriod), w.cfg.BatchSize)
	if err != nil {
		w.logger.Error("Failed to list pending intents", slog.String("error", err.Error()))
		return
	}

	for _, intent := range intents {
		if ctx.Err() != nil {
			return
		}

		if now.Sub(intent.CreatedAt) > w.cfg.MaxAge {
			// One final attempt with the stored idempotency key before
			// abandoning: a posting that committed before a crash replays
			// here and the intent resolves to its real outcome instead of
			// a timeout.
			if err := w.intentSvc.ResolveIntent(ctx, intent); err == nil {
				w.logger.Info("Intent resolved on final attempt", slog.String("intent_id", intent.IntentID))
				continue
			}
			if err := w.intentSvc.MarkFailed(ctx, intent.IntentID, TimeoutFailureReason); err != nil {
				w.logger.Error("Failed to time out intent",
					slog.String("intent_id", intent.IntentID),
					slog.String("error", err.Error()),
				)
			} else {
				w.logger.Warn("Intent timed out",
					slog.String("intent_id", intent.IntentID),
					slog.Int("attempt_count", intent.AttemptCount),
				)
			}
			continue
		}

		if err := w.intentSvc.ResolveIntent(ctx, intent); err != nil {
			// Transient failures stay pending for the next sweep.
			level := slog.LevelError
			if apperrors.IsTransient(err) {
				level = slog.LevelWarn
			}
			w.logger.Log(ctx, level, "Posting retry did not resolve intent",
				slog.String("intent_id", intent.IntentID),
				slog.String("error", err.Error()),
			)
		} else {
			w.logger.Info("Intent resolved by reconciliation", slog.String("intent_id", intent.IntentID))
		}
	}
}
