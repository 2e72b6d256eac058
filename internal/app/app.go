// Package app wires the signal, selection and execution layers into
// the run-to-completion rebalancing cycle.
package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/minsukang/momentum-trader/internal/domain"
	"github.com/minsukang/momentum-trader/internal/execlog"
	"github.com/minsukang/momentum-trader/internal/rebalance"
	"github.com/minsukang/momentum-trader/internal/report"
	"github.com/minsukang/momentum-trader/internal/selection"
	"github.com/minsukang/momentum-trader/internal/universe"
	"github.com/minsukang/momentum-trader/internal/utils"
)

// Modes supported by the engine.
const (
	ModeGEM       = "gem"
	ModePortfolio = "portfolio"
)

// Options control one run.
type Options struct {
	Mode       string
	Candidates []domain.Instrument // GEM candidate list
	Execute    bool                // False = dry run, plan only
	Force      bool                // Bypass the monthly guard
	Investment int64               // KRW; 0 = use broker total value
}

// App owns the collaborators of a run.
type App struct {
	broker      domain.BrokerClient
	selector    *selection.Selector
	executor    *rebalance.Executor
	guard       *execlog.Guard
	universe    *universe.Repository
	reports     *report.Writer
	bufferRatio float64
	rankedCfg   selection.RankedConfig
	now         func() time.Time
	log         zerolog.Logger
}

// New creates the application.
func New(
	broker domain.BrokerClient,
	selector *selection.Selector,
	executor *rebalance.Executor,
	guard *execlog.Guard,
	universeRepo *universe.Repository,
	reports *report.Writer,
	bufferRatio float64,
	rankedCfg selection.RankedConfig,
	log zerolog.Logger,
) *App {
	return &App{
		broker:      broker,
		selector:    selector,
		executor:    executor,
		guard:       guard,
		universe:    universeRepo,
		reports:     reports,
		bufferRatio: bufferRatio,
		rankedCfg:   rankedCfg,
		now:         time.Now,
		log:         log.With().Str("service", "app").Logger(),
	}
}

// WithClock replaces the time source for tests.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// Run performs one selection-and-rebalance cycle and writes its report.
// Dry runs plan but never order and never touch the execution log.
func (a *App) Run(opts Options) (*report.RunReport, error) {
	timer := utils.NewTimer("rebalance_cycle", a.log)
	defer timer.Stop()

	now := a.now()
	rep := report.New(opts.Mode, now, !opts.Execute)

	// The guard runs before any broker interaction so a duplicate run
	// costs nothing.
	if opts.Execute {
		if err := a.guard.Check(now, opts.Force); err != nil {
			return rep, err
		}
	}

	var (
		targets      []domain.TargetAllocation
		selectedCode string
		selectedName string
		err          error
	)

	switch opts.Mode {
	case ModeGEM:
		targets, selectedCode, selectedName, err = a.selectGEM(opts, rep, now)
	case ModePortfolio:
		targets, selectedCode, selectedName, err = a.selectPortfolio(opts, rep, now)
	default:
		return rep, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	if err != nil {
		return rep, err
	}
	rep.AddTargets(targets)

	if !opts.Execute {
		a.planOnly(targets)
		rep.Success = true
		a.reports.Write(rep)
		return rep, nil
	}

	result, err := a.executor.Execute(targets, opts.Mode == ModeGEM)
	if err != nil {
		a.guard.Record(now, selectedCode, selectedName, false)
		a.reports.Write(rep)
		return rep, err
	}

	rep.AddOrders(result.Orders)
	rep.Success = result.Success
	a.guard.Record(now, selectedCode, selectedName, result.Success)
	a.reports.Write(rep)

	a.log.Info().
		Str("run_id", rep.RunID).
		Str("mode", opts.Mode).
		Bool("success", rep.Success).
		Bool("short_circuited", result.ShortCircuited).
		Msg("Run complete")

	return rep, nil
}

func (a *App) selectGEM(opts Options, rep *report.RunReport, now time.Time) ([]domain.TargetAllocation, string, string, error) {
	if len(opts.Candidates) == 0 {
		return nil, "", "", fmt.Errorf("gem mode requires a candidate list")
	}

	sel, err := a.selector.SelectSingleWinner(opts.Candidates, now)
	if err != nil {
		return nil, "", "", err
	}
	rep.Skipped = sel.Skipped
	for _, tr := range sel.All {
		rep.Selected = append(rep.Selected, report.Pick{
			Code:        tr.Instrument.Code,
			Name:        tr.Instrument.Name,
			TotalReturn: tr.TotalReturn,
		})
	}

	winner := sel.Winner.Instrument
	if winner.Name == "" {
		winner.Name = a.resolveName(winner.Code)
	}

	investment, err := a.resolveInvestment(opts)
	if err != nil {
		return nil, "", "", err
	}

	price, err := a.broker.GetQuote(winner.Code)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to price winner %s: %w", winner.Code, err)
	}

	target := selection.SizeSingleWinner(winner, investment, price, a.bufferRatio)
	return []domain.TargetAllocation{target}, winner.Code, winner.Name, nil
}

func (a *App) selectPortfolio(opts Options, rep *report.RunReport, now time.Time) ([]domain.TargetAllocation, string, string, error) {
	members, err := a.universe.GetEligible()
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to load universe: %w", err)
	}
	if len(members) == 0 {
		return nil, "", "", fmt.Errorf("universe is empty, refresh the instrument master first")
	}

	sel, err := a.selector.SelectRanked(members, now, a.rankedCfg)
	if err != nil {
		return nil, "", "", err
	}
	rep.Skipped = sel.Skipped
	for _, m := range sel.Picks {
		rep.Selected = append(rep.Selected, report.Pick{
			Code:            m.Instrument.Code,
			Name:            m.Instrument.Name,
			Momentum:        m.Momentum,
			FIP:             m.FIP,
			DailyVolatility: m.DailyVolatility,
			DailySkewness:   m.DailySkewness,
		})
	}

	investment, err := a.resolveInvestment(opts)
	if err != nil {
		return nil, "", "", err
	}

	targets := selection.SizeEqualWeight(sel.Picks, investment)
	name := fmt.Sprintf("%d instruments, equal weight", len(targets))
	return targets, "PORTFOLIO", name, nil
}

// resolveName looks an instrument name up lazily: the local universe
// store first, then the broker. Unresolvable codes stand in for
// themselves.
func (a *App) resolveName(code string) string {
	if name := a.universe.GetName(code); name != code {
		return name
	}
	name, err := a.broker.GetInstrumentName(code)
	if err != nil || name == "" {
		return code
	}
	return name
}

func (a *App) resolveInvestment(opts Options) (int64, error) {
	if opts.Investment > 0 {
		return opts.Investment, nil
	}
	total, err := a.broker.GetTotalValue()
	if err != nil {
		return 0, fmt.Errorf("failed to read account value: %w", err)
	}
	return total, nil
}

// planOnly logs the actions a live run would take.
func (a *App) planOnly(targets []domain.TargetAllocation) {
	holdings, err := a.broker.GetHoldings()
	if err != nil {
		a.log.Warn().Err(err).Msg("Cannot read holdings for plan preview")
		return
	}

	current := make(map[string]int64, len(holdings))
	for _, h := range holdings {
		current[h.Code] = h.Quantity
	}
	target := make(map[string]int64, len(targets))
	for _, t := range targets {
		target[t.Code] = t.Quantity
	}

	for _, action := range rebalance.Diff(current, target) {
		a.log.Info().
			Str("code", action.Code).
			Str("side", string(action.Side)).
			Int64("qty", action.Quantity).
			Msg("Planned action (dry run)")
	}
}
