package selection

import (
	"github.com/minsukang/momentum-trader/internal/domain"
)

// SizeSingleWinner converts total investment into a single-instrument
// allocation. The buffer ratio leaves headroom for fees and price
// movement between sizing and fill.
func SizeSingleWinner(winner domain.Instrument, totalInvestment int64, referencePrice int64, bufferRatio float64) domain.TargetAllocation {
	if bufferRatio <= 0 || bufferRatio > 1 {
		bufferRatio = DefaultBufferRatio
	}

	var qty int64
	if referencePrice > 0 {
		budget := float64(totalInvestment) * bufferRatio
		qty = int64(budget / float64(referencePrice))
	}

	return domain.TargetAllocation{
		Code:           winner.Code,
		Name:           winner.Name,
		Quantity:       qty,
		ReferencePrice: referencePrice,
	}
}

// SizeEqualWeight splits total investment evenly across the picks,
// flooring each leg to whole shares at its reference price. Legs whose
// allocation cannot buy a single share get quantity zero and stay in
// the output for reporting.
func SizeEqualWeight(picks []domain.MomentumResult, totalInvestment int64) []domain.TargetAllocation {
	if len(picks) == 0 {
		return nil
	}

	perInstrument := float64(totalInvestment) / float64(len(picks))
	targets := make([]domain.TargetAllocation, 0, len(picks))
	for _, p := range picks {
		var qty int64
		if p.EndPrice > 0 {
			qty = int64(perInstrument / float64(p.EndPrice))
		}
		targets = append(targets, domain.TargetAllocation{
			Code:           p.Instrument.Code,
			Name:           p.Instrument.Name,
			Quantity:       qty,
			ReferencePrice: p.EndPrice,
		})
	}
	return targets
}
