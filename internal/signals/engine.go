// Package signals computes the momentum, FIP and total-return signals
// that drive portfolio selection.
package signals

import (
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/minsukang/momentum-trader/internal/domain"
	"github.com/minsukang/momentum-trader/internal/retry"
)

const (
	// Calendar-day search window when a NAV date lands on a holiday.
	navSearchDays = 9

	// Minimum data requirements for the momentum/FIP signal set.
	minDailyBars       = 250
	minMonthlyPoints   = 13
	minMomentumReturns = 10
	minFIPDays         = 200

	// Momentum compounds 11 monthly returns, excluding the most
	// recent month.
	momentumMonths = 11
)

// Engine computes signals from broker market data. Every data fetch
// goes through the retry primitive so one transient network error does
// not abort a whole selection run.
type Engine struct {
	broker     domain.BrokerClient
	maxRetries int
	retryDelay time.Duration
	sleep      retry.Sleeper
	log        zerolog.Logger
}

// NewEngine creates a signal engine.
func NewEngine(broker domain.BrokerClient, log zerolog.Logger) *Engine {
	return &Engine{
		broker:     broker,
		maxRetries: 3,
		retryDelay: time.Second,
		sleep:      time.Sleep,
		log:        log.With().Str("service", "signals").Logger(),
	}
}

// WithRetry overrides the data-fetch retry policy.
func (e *Engine) WithRetry(maxRetries int, delay time.Duration) *Engine {
	if maxRetries >= 1 {
		e.maxRetries = maxRetries
	}
	e.retryDelay = delay
	return e
}

// WithSleeper replaces the backoff wait function for tests.
func (e *Engine) WithSleeper(sleep retry.Sleeper) *Engine {
	e.sleep = sleep
	return e
}

func (e *Engine) fetch(op func() error) error {
	_, err := retry.Do(op, e.maxRetries, retry.Linear(e.retryDelay), domain.IsRetryable, e.sleep)
	return err
}

// TotalReturn computes the 12-month total return (NAV change plus
// dividends) for one instrument as of asOf. Returns a
// KindDataUnavailable error when either NAV endpoint cannot be
// resolved within the holiday search window.
func (e *Engine) TotalReturn(inst domain.Instrument, asOf time.Time) (*domain.TotalReturnResult, error) {
	yearAgo := asOf.AddDate(0, 0, -365)

	// Holidays push the start anchor further into the past and the
	// end anchor back to the most recent trading day.
	navStart, startDate, err := e.searchNav(inst.Code, yearAgo)
	if err != nil {
		return nil, err
	}
	navEnd, endDate, err := e.searchNav(inst.Code, asOf)
	if err != nil {
		return nil, err
	}

	var dividend float64
	err = e.fetch(func() error {
		var err error
		dividend, err = e.broker.GetDividends(inst.Code, startDate, endDate)
		return err
	})
	if err != nil {
		// Missing dividend data degrades to price return only.
		e.log.Warn().Err(err).Str("code", inst.Code).Msg("Dividend lookup failed, assuming zero")
		dividend = 0
	}

	result := &domain.TotalReturnResult{
		Instrument:    inst,
		StartDate:     startDate,
		EndDate:       endDate,
		NavStart:      navStart,
		NavEnd:        navEnd,
		TotalDividend: dividend,
		PriceReturn:   (navEnd - navStart) / navStart * 100,
		DividendYield: dividend / navStart * 100,
		TotalReturn:   (navEnd + dividend - navStart) / navStart * 100,
	}

	e.log.Info().
		Str("code", inst.Code).
		Str("name", inst.Name).
		Float64("total_return", result.TotalReturn).
		Float64("price_return", result.PriceReturn).
		Float64("dividend_yield", result.DividendYield).
		Msg("Computed 12m total return")

	return result, nil
}

// searchNav resolves a NAV at base, stepping one day back at a time up
// to navSearchDays times when the anchor lands on a non-trading day.
func (e *Engine) searchNav(code string, base time.Time) (float64, time.Time, error) {
	for offset := 0; offset <= navSearchDays; offset++ {
		date := base.AddDate(0, 0, -offset)
		var nav float64
		err := e.fetch(func() error {
			var err error
			nav, err = e.broker.GetNav(code, date)
			return err
		})
		if err != nil {
			if domain.IsDataUnavailable(err) {
				continue
			}
			return 0, time.Time{}, err
		}
		return nav, date, nil
	}
	return 0, time.Time{}, domain.Errorf(domain.KindDataUnavailable, "signals.TotalReturn",
		"no NAV for %s within %d days of %s", code, navSearchDays, base.Format("2006-01-02"))
}

// MomentumAndFIP computes the adjusted 12-month momentum and FIP for
// one instrument. Instruments with insufficient history return a
// KindDataUnavailable error and are skipped by the selector.
func (e *Engine) MomentumAndFIP(inst domain.Instrument, asOf time.Time) (*domain.MomentumResult, error) {
	start := asOf.AddDate(0, -13, 0)
	var bars []domain.Bar
	err := e.fetch(func() error {
		var err error
		bars, err = e.broker.GetDailyBars(inst.Code, start, asOf)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(bars) < minDailyBars {
		return nil, domain.Errorf(domain.KindDataUnavailable, "signals.MomentumAndFIP",
			"%s: %d daily bars, need %d", inst.Code, len(bars), minDailyBars)
	}

	months := monthEndCloses(bars)
	if len(months) < minMonthlyPoints {
		return nil, domain.Errorf(domain.KindDataUnavailable, "signals.MomentumAndFIP",
			"%s: %d monthly points, need %d", inst.Code, len(months), minMonthlyPoints)
	}

	closes := make([]float64, len(months))
	for i, m := range months {
		closes[i] = m.Close
	}
	monthlyReturns := returnSeries(closes)

	// Window covering months [-12..-2]: the most recent monthly return
	// is excluded to sidestep short-term reversal.
	window := monthlyReturns[len(monthlyReturns)-momentumMonths-1 : len(monthlyReturns)-1]
	momentum, used := compound(window)
	if used < minMomentumReturns {
		return nil, domain.Errorf(domain.KindDataUnavailable, "signals.MomentumAndFIP",
			"%s: %d usable monthly returns, need %d", inst.Code, used, minMomentumReturns)
	}
	// Reported as a percentage, like the total-return metrics.
	momentum *= 100

	// FIP over trailing 12 months of daily returns.
	cutoff := asOf.AddDate(0, -12, 0)
	var dailyCloses []float64
	for _, b := range bars {
		if !b.Date.Before(cutoff) {
			dailyCloses = append(dailyCloses, b.Close)
		}
	}
	dailyReturns := returnSeries(dailyCloses)
	if len(dailyReturns) < minFIPDays {
		return nil, domain.Errorf(domain.KindDataUnavailable, "signals.MomentumAndFIP",
			"%s: %d daily returns for FIP, need %d", inst.Code, len(dailyReturns), minFIPDays)
	}
	posRatio, negRatio := signRatio(dailyReturns)
	fip := sign(momentum) * (negRatio - posRatio)

	last := months[len(months)-1]
	result := &domain.MomentumResult{
		Instrument:      inst,
		Momentum:        momentum,
		FIP:             fip,
		DailyVolatility: stat.StdDev(dailyReturns, nil),
		DailySkewness:   stat.Skew(dailyReturns, nil),
		EndPrice:        int64(last.Close),
		EndPriceDate:    last.Date,
	}

	e.log.Debug().
		Str("code", inst.Code).
		Float64("momentum", momentum).
		Float64("fip", fip).
		Int64("end_price", result.EndPrice).
		Msg("Computed momentum signals")

	return result, nil
}
