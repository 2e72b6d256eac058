// Package rebalance diffs current holdings against a target portfolio
// and drives the broker through the sell-then-buy cycle.
package rebalance

import (
	"sort"

	"github.com/minsukang/momentum-trader/internal/domain"
)

// Action is one required position adjustment.
type Action struct {
	Code     string
	Side     domain.OrderSide
	Quantity int64 // Always positive
}

// Diff computes the actions that move current to target. Codes held
// but not targeted become full liquidations; codes targeted but not
// held become full buys; equal quantities produce no action. Output is
// sorted by code so cycles are deterministic.
func Diff(current, target map[string]int64) []Action {
	codes := make(map[string]struct{}, len(current)+len(target))
	for c := range current {
		codes[c] = struct{}{}
	}
	for c := range target {
		codes[c] = struct{}{}
	}

	var actions []Action
	for code := range codes {
		delta := target[code] - current[code]
		switch {
		case delta < 0:
			actions = append(actions, Action{Code: code, Side: domain.SideSell, Quantity: -delta})
		case delta > 0:
			actions = append(actions, Action{Code: code, Side: domain.SideBuy, Quantity: delta})
		}
	}

	sort.Slice(actions, func(i, j int) bool { return actions[i].Code < actions[j].Code })
	return actions
}

// Sells filters the sell legs of a diff.
func Sells(actions []Action) []Action {
	var out []Action
	for _, a := range actions {
		if a.Side == domain.SideSell {
			out = append(out, a)
		}
	}
	return out
}

// Buys filters the buy legs of a diff.
func Buys(actions []Action) []Action {
	var out []Action
	for _, a := range actions {
		if a.Side == domain.SideBuy {
			out = append(out, a)
		}
	}
	return out
}
