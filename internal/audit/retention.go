package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultRetentionSchedule runs the purge daily at 03:00.
const DefaultRetentionSchedule = "0 3 * * *"

// Retention periodically purges ledger entries past their maximum age.
type Retention struct {
	cron   *cron.Cron
	store  *Store
	maxAge time.Duration
}

// NewRetention registers a purge job on the given cron schedule. An
// empty schedule selects DefaultRetentionSchedule.
func NewRetention(store *Store, schedule string, maxAge time.Duration) (*Retention, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive, got %s", maxAge)
	}
	if schedule == "" {
		schedule = DefaultRetentionSchedule
	}

	r := &Retention{cron: cron.New(), store: store, maxAge: maxAge}
	if _, err := r.cron.AddFunc(schedule, r.purge); err != nil {
		return nil, fmt.Errorf("registering retention schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Retention) purge() {
	removed, err := r.store.PurgeOlderThan(context.Background(), r.maxAge)
	if err != nil {
		log.Error().Err(err).Msg("audit retention purge failed")
		return
	}
	log.Info().Int64("runs_removed", removed).Dur("max_age", r.maxAge).Msg("audit retention purge complete")
}

// Start begins the purge schedule.
func (r *Retention) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running purge to finish.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}
