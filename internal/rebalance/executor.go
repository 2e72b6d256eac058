package rebalance

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/minsukang/momentum-trader/internal/domain"
	"github.com/minsukang/momentum-trader/internal/retry"
)

// Config holds execution pacing and retry parameters.
type Config struct {
	MaxRetries     int
	RetryDelay     time.Duration // Linear backoff base between attempts
	OrderDelay     time.Duration // Pause after every order submission
	SettleWait     time.Duration // Pause between sell and buy phases
	OrderCondition domain.OrderCondition
}

// DefaultConfig mirrors the strategy's production parameters.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		RetryDelay:     time.Second,
		OrderDelay:     500 * time.Millisecond,
		SettleWait:     60 * time.Second,
		OrderCondition: domain.ConditionBest,
	}
}

// CycleResult is the full outcome of one rebalancing cycle.
type CycleResult struct {
	Orders         []domain.OrderResult
	Success        bool // True when no buy failed
	ShortCircuited bool // Single-winner target was already held
}

// Executor drives the broker through the sequenced rebalancing cycle:
// liquidate non-targets, wait for settlement, then adjust toward the
// target quantities.
type Executor struct {
	broker domain.BrokerClient
	cfg    Config
	sleep  retry.Sleeper
	log    zerolog.Logger
}

// NewExecutor creates an order executor.
func NewExecutor(broker domain.BrokerClient, cfg Config, log zerolog.Logger) *Executor {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &Executor{
		broker: broker,
		cfg:    cfg,
		sleep:  time.Sleep,
		log:    log.With().Str("service", "executor").Logger(),
	}
}

// WithSleeper replaces the wait function. Tests run instantly with a
// recording sleeper.
func (e *Executor) WithSleeper(sleep retry.Sleeper) *Executor {
	e.sleep = sleep
	return e
}

// Execute runs one full cycle toward targets. singleWinner enables the
// GEM short-circuit: when the sole target is already held, the cycle
// ends after liquidating everything else. The returned error is non-nil
// only for failures before any order could be attempted.
func (e *Executor) Execute(targets []domain.TargetAllocation, singleWinner bool) (*CycleResult, error) {
	holdings, err := e.fetchHoldings()
	if err != nil {
		return nil, err
	}

	current := make(map[string]int64, len(holdings))
	names := make(map[string]string, len(holdings))
	for _, h := range holdings {
		current[h.Code] = h.Quantity
		names[h.Code] = h.Name
	}

	target := make(map[string]int64, len(targets))
	for _, t := range targets {
		target[t.Code] = t.Quantity
		if t.Name != "" {
			names[t.Code] = t.Name
		}
	}

	// GEM mode: an already-held winner is kept as-is, never trimmed or
	// topped up. Pinning its target to the held quantity keeps the diff
	// to liquidating everything else.
	heldWinner := singleWinner && len(targets) == 1 && current[targets[0].Code] > 0
	if heldWinner {
		target[targets[0].Code] = current[targets[0].Code]
	}

	actions := Diff(current, target)
	result := &CycleResult{}

	e.log.Info().
		Int("holdings", len(holdings)).
		Int("targets", len(targets)).
		Int("actions", len(actions)).
		Msg("Starting rebalancing cycle")

	// Phase 1: liquidate and trim.
	sellsSucceeded := 0
	for _, a := range Sells(actions) {
		res := e.submitSell(a, names[a.Code])
		result.Orders = append(result.Orders, res)
		if res.Status == domain.OrderSuccess {
			sellsSucceeded++
		}
		e.sleep(e.cfg.OrderDelay)
	}

	// The held winner means the portfolio is in place once everything
	// else is liquidated.
	if heldWinner {
		e.log.Info().
			Str("code", targets[0].Code).
			Int64("held", current[targets[0].Code]).
			Msg("Target already held, skipping buy phase")
		result.ShortCircuited = true
		result.Success = true
		return result, nil
	}

	// Phase 2: let sell proceeds settle before buying.
	if sellsSucceeded > 0 && len(Buys(actions)) > 0 {
		e.log.Info().Dur("wait", e.cfg.SettleWait).Msg("Waiting for sell orders to settle")
		e.sleep(e.cfg.SettleWait)
	}

	// Phase 3: buy toward targets.
	buysFailed := 0
	for _, a := range Buys(actions) {
		res := e.submitBuy(a, names[a.Code])
		result.Orders = append(result.Orders, res)
		if res.Status == domain.OrderFailed {
			buysFailed++
		}
		e.sleep(e.cfg.OrderDelay)
	}

	result.Success = buysFailed == 0
	e.log.Info().
		Bool("success", result.Success).
		Int("orders", len(result.Orders)).
		Int("sells_succeeded", sellsSucceeded).
		Int("buys_failed", buysFailed).
		Msg("Rebalancing cycle complete")

	return result, nil
}

func (e *Executor) fetchHoldings() ([]domain.Holding, error) {
	var holdings []domain.Holding
	_, err := retry.Do(func() error {
		var err error
		holdings, err = e.broker.GetHoldings()
		return err
	}, e.cfg.MaxRetries, retry.Linear(e.cfg.RetryDelay), domain.IsRetryable, e.sleep)
	if err != nil {
		return nil, err
	}
	return holdings, nil
}

func (e *Executor) submitSell(a Action, name string) domain.OrderResult {
	res := domain.OrderResult{
		Code:         a.Code,
		Name:         name,
		Side:         domain.SideSell,
		RequestedQty: a.Quantity,
	}

	attempts, err := retry.Do(func() error {
		_, err := e.broker.PlaceMarketSell(a.Code, a.Quantity)
		return err
	}, e.cfg.MaxRetries, retry.Linear(e.cfg.RetryDelay), domain.IsRetryable, e.sleep)

	res.Attempts = attempts
	if err != nil {
		res.Status = domain.OrderFailed
		res.Error = err.Error()
		e.log.Error().Err(err).Str("code", a.Code).Int64("qty", a.Quantity).Int("attempts", attempts).Msg("Sell failed")
		return res
	}

	res.Status = domain.OrderSuccess
	e.log.Info().Str("code", a.Code).Int64("qty", a.Quantity).Int("attempts", attempts).Msg("Sell submitted")
	return res
}

func (e *Executor) submitBuy(a Action, name string) domain.OrderResult {
	res := domain.OrderResult{
		Code:         a.Code,
		Name:         name,
		Side:         domain.SideBuy,
		RequestedQty: a.Quantity,
	}

	// Price off the live quote, rounded up to a valid tick.
	var quote int64
	attempts, err := retry.Do(func() error {
		var err error
		quote, err = e.broker.GetQuote(a.Code)
		return err
	}, e.cfg.MaxRetries, retry.Linear(e.cfg.RetryDelay), domain.IsRetryable, e.sleep)
	if err != nil {
		res.Status = domain.OrderFailed
		res.Attempts = attempts
		res.Error = err.Error()
		e.log.Error().Err(err).Str("code", a.Code).Msg("Quote fetch failed, cannot price buy")
		return res
	}

	res.Price = RoundTick(quote)
	attempts, err = retry.Do(func() error {
		_, err := e.broker.PlaceLimitBuy(a.Code, a.Quantity, res.Price, e.cfg.OrderCondition)
		return err
	}, e.cfg.MaxRetries, retry.Linear(e.cfg.RetryDelay), domain.IsRetryable, e.sleep)

	res.Attempts = attempts
	if err != nil {
		res.Status = domain.OrderFailed
		res.Error = err.Error()
		e.log.Error().Err(err).Str("code", a.Code).Int64("qty", a.Quantity).Int64("price", res.Price).Int("attempts", attempts).Msg("Buy failed")
		return res
	}

	res.Status = domain.OrderSuccess
	e.log.Info().Str("code", a.Code).Int64("qty", a.Quantity).Int64("price", res.Price).Int("attempts", attempts).Msg("Buy submitted")
	return res
}
