// Package selection turns computed signals into a target portfolio.
package selection

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/minsukang/momentum-trader/internal/domain"
)

// Defaults mirror the strategy parameters; all are overridable via
// configuration.
const (
	DefaultTopMomentumCount = 100
	DefaultBottomFIPCount   = 10
	DefaultBufferRatio      = 0.99
)

// SignalSource computes per-instrument signals. Implemented by
// signals.Engine.
type SignalSource interface {
	TotalReturn(inst domain.Instrument, asOf time.Time) (*domain.TotalReturnResult, error)
	MomentumAndFIP(inst domain.Instrument, asOf time.Time) (*domain.MomentumResult, error)
}

// Selector builds target portfolios from ranked signals.
type Selector struct {
	signals SignalSource
	log     zerolog.Logger
}

// NewSelector creates a portfolio selector.
func NewSelector(signals SignalSource, log zerolog.Logger) *Selector {
	return &Selector{
		signals: signals,
		log:     log.With().Str("service", "selection").Logger(),
	}
}

// SingleWinnerResult is the outcome of GEM-style selection.
type SingleWinnerResult struct {
	Winner  domain.TotalReturnResult
	All     []domain.TotalReturnResult
	Skipped []string // Codes dropped for missing data
}

// SelectSingleWinner ranks candidates by 12-month total return and
// picks the highest. Candidates with unavailable data are skipped;
// exact ties resolve to the lowest instrument code so repeated runs
// pick the same winner.
func (s *Selector) SelectSingleWinner(candidates []domain.Instrument, asOf time.Time) (*SingleWinnerResult, error) {
	result := &SingleWinnerResult{}

	for _, inst := range candidates {
		tr, err := s.signals.TotalReturn(inst, asOf)
		if err != nil {
			if domain.IsDataUnavailable(err) {
				s.log.Warn().Str("code", inst.Code).Msg("Skipping candidate, data unavailable")
				result.Skipped = append(result.Skipped, inst.Code)
				continue
			}
			return nil, err
		}
		result.All = append(result.All, *tr)
	}

	if len(result.All) == 0 {
		return nil, domain.Errorf(domain.KindDataUnavailable, "selection.SelectSingleWinner",
			"no candidate has a computable total return")
	}

	sort.Slice(result.All, func(i, j int) bool {
		a, b := result.All[i], result.All[j]
		if a.TotalReturn != b.TotalReturn {
			return a.TotalReturn > b.TotalReturn
		}
		return a.Instrument.Code < b.Instrument.Code
	})
	result.Winner = result.All[0]

	s.log.Info().
		Str("code", result.Winner.Instrument.Code).
		Str("name", result.Winner.Instrument.Name).
		Float64("total_return", result.Winner.TotalReturn).
		Int("candidates", len(result.All)).
		Int("skipped", len(result.Skipped)).
		Msg("Selected single winner")

	return result, nil
}

// RankedConfig holds the cut sizes for ranked selection.
type RankedConfig struct {
	TopMomentumCount int
	BottomFIPCount   int
}

// RankedResult is the outcome of momentum/FIP ranked selection.
type RankedResult struct {
	Picks   []domain.MomentumResult // Final portfolio, FIP ascending
	TopPool []domain.MomentumResult // Momentum leaders before the FIP cut
	Skipped []string
}

// SelectRanked ranks the universe by adjusted momentum, keeps the top
// cut, then keeps the lowest-FIP instruments of that pool. When the
// valid universe is smaller than the cuts, both cuts shrink instead of
// failing the run.
func (s *Selector) SelectRanked(universe []domain.Instrument, asOf time.Time, cfg RankedConfig) (*RankedResult, error) {
	if cfg.TopMomentumCount <= 0 {
		cfg.TopMomentumCount = DefaultTopMomentumCount
	}
	if cfg.BottomFIPCount <= 0 {
		cfg.BottomFIPCount = DefaultBottomFIPCount
	}

	result := &RankedResult{}
	var valid []domain.MomentumResult

	for _, inst := range universe {
		mr, err := s.signals.MomentumAndFIP(inst, asOf)
		if err != nil {
			if domain.IsDataUnavailable(err) {
				result.Skipped = append(result.Skipped, inst.Code)
				continue
			}
			// Transient data failures also just cost the instrument
			// its slot this month.
			s.log.Warn().Err(err).Str("code", inst.Code).Msg("Signal computation failed, skipping")
			result.Skipped = append(result.Skipped, inst.Code)
			continue
		}
		valid = append(valid, *mr)
	}

	if len(valid) == 0 {
		return nil, domain.Errorf(domain.KindDataUnavailable, "selection.SelectRanked",
			"no instrument in the universe has computable signals")
	}

	topCut := cfg.TopMomentumCount
	if len(valid) < topCut {
		topCut = len(valid)
	}

	sort.Slice(valid, func(i, j int) bool {
		if valid[i].Momentum != valid[j].Momentum {
			return valid[i].Momentum > valid[j].Momentum
		}
		return valid[i].Instrument.Code < valid[j].Instrument.Code
	})
	result.TopPool = append(result.TopPool, valid[:topCut]...)

	bottomCut := cfg.BottomFIPCount
	if topCut < bottomCut {
		bottomCut = topCut
	}

	pool := append([]domain.MomentumResult(nil), result.TopPool...)
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].FIP != pool[j].FIP {
			return pool[i].FIP < pool[j].FIP
		}
		return pool[i].Instrument.Code < pool[j].Instrument.Code
	})
	result.Picks = pool[:bottomCut]

	s.log.Info().
		Int("universe", len(universe)).
		Int("valid", len(valid)).
		Int("top_pool", len(result.TopPool)).
		Int("picks", len(result.Picks)).
		Msg("Selected ranked portfolio")

	return result, nil
}
