package app

import (
	"github.com/rs/zerolog"

	"github.com/minsukang/momentum-trader/internal/domain"
)

// RebalanceJob adapts a configured run for the cron scheduler. The
// monthly guard makes over-firing schedules harmless: extra triggers
// within a month are skipped.
type RebalanceJob struct {
	app  *App
	opts Options
	log  zerolog.Logger
}

// NewRebalanceJob creates the scheduled job.
func NewRebalanceJob(app *App, opts Options, log zerolog.Logger) *RebalanceJob {
	return &RebalanceJob{
		app:  app,
		opts: opts,
		log:  log.With().Str("job", "rebalance").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *RebalanceJob) Name() string { return "rebalance" }

// Run implements scheduler.Job.
func (j *RebalanceJob) Run() error {
	_, err := j.app.Run(j.opts)
	if err != nil {
		if domain.IsAlreadyExecuted(err) {
			j.log.Info().Msg("Already executed this month, nothing to do")
			return nil
		}
		return err
	}
	return nil
}
