// Package domain contains broker-agnostic types shared across the engine.
// Client adapters translate their wire formats into these types so the
// signal, selection and execution layers never see broker specifics.
package domain

import "time"

// Instrument identifies a listed equity or ETF by exchange code.
type Instrument struct {
	Code string // Exchange instrument code (e.g. "379800")
	Name string // Display name; falls back to Code when unresolved
}

// Bar is a single daily OHLCV observation.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Holding is a currently held position. Quantity is always positive;
// flat positions are simply absent.
type Holding struct {
	Code     string
	Name     string
	Quantity int64
}

// TargetAllocation is one leg of the desired portfolio.
type TargetAllocation struct {
	Code           string
	Name           string
	Quantity       int64 // Desired share count, never negative
	ReferencePrice int64 // Price used for sizing (KRW)
}

// OrderSide distinguishes sell and buy legs of a rebalancing cycle.
type OrderSide string

const (
	SideSell OrderSide = "sell"
	SideBuy  OrderSide = "buy"
)

// OrderStatus is the terminal state of one order submission.
type OrderStatus string

const (
	OrderSuccess OrderStatus = "success"
	OrderFailed  OrderStatus = "failed"
	OrderSkipped OrderStatus = "skipped"
)

// OrderResult records the outcome of a single order, including how many
// submission attempts it took.
type OrderResult struct {
	Code         string
	Name         string
	Side         OrderSide
	RequestedQty int64
	Price        int64 // Limit price for buys; 0 for market sells
	Status       OrderStatus
	Attempts     int
	Error        string // Empty unless Status is failed
}

// OrderHandle is the broker's acknowledgement of an accepted order.
type OrderHandle struct {
	OrderID string
	Code    string
}

// ExecutionRecord is one append-only row of the monthly execution log.
type ExecutionRecord struct {
	Date         time.Time
	Month        string // "2006-01" key used for idempotency checks
	SelectedCode string
	SelectedName string
	Success      bool
	Timestamp    time.Time
}

// MonthKey formats t as the execution-log month key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// TotalReturnResult is the 12-month total return of one instrument,
// decomposed into price appreciation and distributed dividends.
type TotalReturnResult struct {
	Instrument    Instrument
	StartDate     time.Time
	EndDate       time.Time
	NavStart      float64
	NavEnd        float64
	TotalDividend float64
	PriceReturn   float64 // Percent
	DividendYield float64 // Percent
	TotalReturn   float64 // Percent, price + dividends
}

// MomentumResult is the ranked-mode signal set for one instrument.
// Volatility and skewness are diagnostics carried into reports; they do
// not participate in selection.
type MomentumResult struct {
	Instrument      Instrument
	Momentum        float64 // Adjusted 12-month momentum in percent, most recent month excluded
	FIP             float64 // Frog-in-the-pan information discreteness
	DailyVolatility float64
	DailySkewness   float64
	EndPrice        int64     // Latest month-end close, used as reference price
	EndPriceDate    time.Time // Actual trading date of that close
}
