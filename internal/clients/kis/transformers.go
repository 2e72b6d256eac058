package kis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/minsukang/momentum-trader/internal/domain"
)

// Transformers convert KIS wire payloads into domain types. KIS sends
// all numbers as strings, occasionally with thousands separators.

func parseInt(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	return strconv.ParseFloat(s, 64)
}

// transformBars converts one chart page. Rows with an empty date are
// padding in short responses and get dropped.
func transformBars(resp chartResponse) ([]domain.Bar, error) {
	bars := make([]domain.Bar, 0, len(resp.Output2))
	for _, row := range resp.Output2 {
		if strings.TrimSpace(row.Date) == "" {
			continue
		}
		date, err := time.Parse("20060102", row.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid bar date %q: %w", row.Date, err)
		}
		closePrice, err := parseFloat(row.Close)
		if err != nil {
			return nil, fmt.Errorf("invalid close for %s: %w", row.Date, err)
		}
		open, _ := parseFloat(row.Open)
		high, _ := parseFloat(row.High)
		low, _ := parseFloat(row.Low)
		volume, _ := parseInt(row.Volume)

		bars = append(bars, domain.Bar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}
	return bars, nil
}

// sortBarsAscending orders bars by date and drops duplicates, keeping
// the first occurrence. Chart pages arrive newest-first and windows can
// overlap at their edges.
func sortBarsAscending(bars []domain.Bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
}

// dedupeBars removes consecutive duplicate dates from a sorted series.
func dedupeBars(bars []domain.Bar) []domain.Bar {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:1]
	for _, b := range bars[1:] {
		if !b.Date.Equal(out[len(out)-1].Date) {
			out = append(out, b)
		}
	}
	return out
}

// transformHoldings keeps only positions with positive quantity.
func transformHoldings(resp *balanceResponse) []domain.Holding {
	holdings := make([]domain.Holding, 0, len(resp.Output1))
	for _, row := range resp.Output1 {
		qty, err := parseInt(row.Quantity)
		if err != nil || qty <= 0 {
			continue
		}
		holdings = append(holdings, domain.Holding{
			Code:     strings.TrimSpace(row.Code),
			Name:     strings.TrimSpace(row.Name),
			Quantity: qty,
		})
	}
	return holdings
}
