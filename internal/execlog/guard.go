package execlog

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/minsukang/momentum-trader/internal/domain"
)

// Guard enforces at most one successful rebalancing per calendar month.
// Recording is best-effort: persistence failures are logged and never
// block trading.
type Guard struct {
	repo *Repository
	log  zerolog.Logger
}

// NewGuard creates a Guard on top of the execution log repository.
func NewGuard(repo *Repository, log zerolog.Logger) *Guard {
	return &Guard{
		repo: repo,
		log:  log.With().Str("service", "execution_guard").Logger(),
	}
}

// Check returns a KindAlreadyExecuted error when a successful execution
// already exists for now's month, unless force is set. Runs before any
// broker interaction.
func (g *Guard) Check(now time.Time, force bool) error {
	month := domain.MonthKey(now)

	if force {
		g.log.Warn().Str("month", month).Msg("Force flag set, bypassing monthly execution check")
		return nil
	}

	done, err := g.repo.HasSuccessForMonth(month)
	if err != nil {
		// Best-effort persistence: an unreadable log never alters the
		// trading decision.
		g.log.Warn().Err(err).Str("month", month).Msg("Cannot read execution log, proceeding")
		return nil
	}
	if done {
		g.log.Info().Str("month", month).Msg("Rebalancing already executed this month, skipping")
		return domain.Errorf(domain.KindAlreadyExecuted, "execlog.Check",
			"rebalancing already executed for %s", month)
	}
	return nil
}

// Record appends the outcome of a rebalancing attempt. Failures are
// absorbed with a warning.
func (g *Guard) Record(now time.Time, selectedCode, selectedName string, success bool) {
	rec := domain.ExecutionRecord{
		Date:         now,
		Month:        domain.MonthKey(now),
		SelectedCode: selectedCode,
		SelectedName: selectedName,
		Success:      success,
		Timestamp:    now,
	}

	if err := g.repo.Append(rec); err != nil {
		g.log.Warn().
			Err(err).
			Str("month", rec.Month).
			Str("code", selectedCode).
			Bool("success", success).
			Msg("Failed to persist execution record")
		return
	}

	g.log.Info().
		Str("month", rec.Month).
		Str("code", selectedCode).
		Bool("success", success).
		Msg("Execution record saved")
}
