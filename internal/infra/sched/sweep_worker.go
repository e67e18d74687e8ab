package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/webb-rtk/shintek/internal/usecase"
)

// SweepWorker periodically evicts expired sessions so memory does not grow
// unbounded from abandoned conversations between accesses.
type SweepWorker struct {
	interval  time.Duration
	sessionUC usecase.SessionUseCase
	log       *zerolog.Logger
}

func NewSweepWorker(interval time.Duration, sessionUC usecase.SessionUseCase, logger *zerolog.Logger) *SweepWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	sweepLog := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{
		interval:  interval,
		sessionUC: sessionUC,
		log:       &sweepLog,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting session sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping session sweep worker")
			return ctx.Err()
		case <-ticker.C:
			n := w.sessionUC.SweepExpired()
			if n > 0 {
				w.log.Info().Int("count", n).Msg("expired sessions evicted")
			}
		}
	}
}
