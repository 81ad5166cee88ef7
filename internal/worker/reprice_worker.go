package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Repricer recomputes current prices for the whole active catalog.
type Repricer interface {
	RepriceAll(ctx context.Context) (int, error)
}

// RepriceWorker periodically reprices every active product so that deal
// windows and out-of-band stock edits show up in stored prices.
type RepriceWorker struct {
	pricing  Repricer
	interval time.Duration
}

// NewRepriceWorker constructs a RepriceWorker.
func NewRepriceWorker(pricing Repricer, interval time.Duration) *RepriceWorker {
	return &RepriceWorker{
		pricing:  pricing,
		interval: interval,
	}
}

// Start begins the periodic reprice loop until context is canceled.
func (w *RepriceWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Warn().Msg("Reprice worker disabled: interval must be positive")
		return
	}
	log.Info().Dur("interval", w.interval).Msg("Starting reprice worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Reprice worker stopped")
			return
		}
	}
}

func (w *RepriceWorker) run(ctx context.Context) {
	changed, err := w.pricing.RepriceAll(ctx)
	if err != nil {
		log.Error().Err(err).Int("changed", changed).Msg("Reprice run failed")
		return
	}
	if changed > 0 {
		log.Info().Int("changed", changed).Msg("Reprice run updated prices")
	}
}
