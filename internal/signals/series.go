package signals

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/minsukang/momentum-trader/internal/domain"
)

// monthEndCloses resamples a daily series to the last close of each
// calendar month, keeping the actual trading date of that close.
type monthEnd struct {
	Date  time.Time
	Close float64
}

func monthEndCloses(bars []domain.Bar) []monthEnd {
	if len(bars) == 0 {
		return nil
	}
	var out []monthEnd
	for i, b := range bars {
		last := i == len(bars)-1
		if !last {
			next := bars[i+1].Date
			if next.Year() == b.Date.Year() && next.Month() == b.Date.Month() {
				continue
			}
		}
		out = append(out, monthEnd{Date: b.Date, Close: b.Close})
	}
	return out
}

// returnSeries computes simple one-period returns from a close series
// using a 1-period rate of change. The result has len(closes)-1
// entries; talib pads the first slot, which is dropped here.
func returnSeries(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	roc := talib.Roc(closes, 1)
	returns := make([]float64, 0, len(closes)-1)
	for _, v := range roc[1:] {
		returns = append(returns, v/100.0)
	}
	return returns
}

// compound multiplies (1+r) over the series, skipping NaNs, and
// reports how many usable values it saw.
func compound(returns []float64) (float64, int) {
	product := 1.0
	used := 0
	for _, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		product *= 1 + r
		used++
	}
	return product - 1, used
}

// signRatio counts the share of strictly positive and strictly negative
// values. Zero-return days count toward neither side.
func signRatio(returns []float64) (positive, negative float64) {
	if len(returns) == 0 {
		return 0, 0
	}
	var pos, neg int
	for _, r := range returns {
		switch {
		case r > 0:
			pos++
		case r < 0:
			neg++
		}
	}
	n := float64(len(returns))
	return float64(pos) / n, float64(neg) / n
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
