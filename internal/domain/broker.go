package domain

import "time"

// OrderCondition selects how a limit buy is priced at the exchange.
type OrderCondition string

const (
	// ConditionLimit submits a plain limit order at the given price.
	ConditionLimit OrderCondition = "limit"
	// ConditionBest submits a best-limit order; the price still caps
	// the fill.
	ConditionBest OrderCondition = "best"
)

// BrokerClient defines broker-agnostic market data and trading
// operations. It abstracts away broker-specific endpoints, auth and
// response formats; implementations are the single place where raw
// broker failures are classified into error kinds.
type BrokerClient interface {
	// GetQuote returns the current price in KRW.
	GetQuote(code string) (int64, error)

	// GetDailyBars returns date-ordered daily bars for [start, end].
	GetDailyBars(code string, start, end time.Time) ([]Bar, error)

	// GetNav returns the fund NAV observed on date. Returns a
	// DataUnavailable error when no valid observation exists for that
	// date (non-trading day, missing record, NAV <= 0).
	GetNav(code string, date time.Time) (float64, error)

	// GetDividends returns the per-share cash distributions summed
	// over [start, end].
	GetDividends(code string, start, end time.Time) (float64, error)

	// GetInstrumentName resolves a display name for code.
	GetInstrumentName(code string) (string, error)

	// GetHoldings returns all positions with positive quantity.
	GetHoldings() ([]Holding, error)

	// GetTotalValue returns the account's total evaluation in KRW.
	GetTotalValue() (int64, error)

	// PlaceMarketSell submits a market sell for qty shares.
	PlaceMarketSell(code string, qty int64) (*OrderHandle, error)

	// PlaceLimitBuy submits a limit buy for qty shares at price.
	PlaceLimitBuy(code string, qty, price int64, condition OrderCondition) (*OrderHandle, error)
}
