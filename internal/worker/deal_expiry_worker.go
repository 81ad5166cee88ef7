package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DealStore switches off monthly deals that have ended.
type DealStore interface {
	DeactivateExpiredDeals(ctx context.Context, now time.Time) (int64, error)
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// DealExpiryWorker runs the deal expiry job on a cron schedule.
type DealExpiryWorker struct {
	deals   DealStore
	pricing Repricer
	sched   *cron.Cron
	now     func() time.Time
}

// NewDealExpiryWorker parses the cron schedule and constructs a DealExpiryWorker.
func NewDealExpiryWorker(deals DealStore, pricing Repricer, spec string) (*DealExpiryWorker, error) {
	w := &DealExpiryWorker{
		deals:   deals,
		pricing: pricing,
		sched:   cron.New(cron.WithLocation(time.UTC), cron.WithParser(cronParser)),
		now:     time.Now,
	}
	if _, err := w.sched.AddFunc(spec, func() { w.run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid deal expiry schedule %q: %w", spec, err)
	}
	return w, nil
}

// Start runs the scheduler until ctx is canceled and waits for a running job
// to finish.
func (w *DealExpiryWorker) Start(ctx context.Context) {
	log.Info().Msg("Starting deal expiry worker")
	w.sched.Start()

	<-ctx.Done()
	<-w.sched.Stop().Done()
	log.Info().Msg("Deal expiry worker stopped")
}

func (w *DealExpiryWorker) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Deal expiry job panicked")
		}
	}()

	expired, err := w.deals.DeactivateExpiredDeals(ctx, w.now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to deactivate expired deals")
		return
	}
	if expired == 0 {
		return
	}
	log.Info().Int64("expired", expired).Msg("Deactivated expired monthly deals")

	if _, err := w.pricing.RepriceAll(ctx); err != nil {
		log.Error().Err(err).Msg("Reprice after deal expiry failed")
	}
}
