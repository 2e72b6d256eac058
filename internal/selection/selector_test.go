package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsukang/momentum-trader/internal/domain"
	"github.com/minsukang/momentum-trader/pkg/logger"
)

// stubSignals serves pre-computed signals keyed by instrument code.
type stubSignals struct {
	returns  map[string]float64
	momentum map[string]*domain.MomentumResult
}

func (s *stubSignals) TotalReturn(inst domain.Instrument, asOf time.Time) (*domain.TotalReturnResult, error) {
	r, ok := s.returns[inst.Code]
	if !ok {
		return nil, domain.Errorf(domain.KindDataUnavailable, "stub.TotalReturn", "no data for %s", inst.Code)
	}
	return &domain.TotalReturnResult{Instrument: inst, TotalReturn: r}, nil
}

func (s *stubSignals) MomentumAndFIP(inst domain.Instrument, asOf time.Time) (*domain.MomentumResult, error) {
	m, ok := s.momentum[inst.Code]
	if !ok {
		return nil, domain.Errorf(domain.KindDataUnavailable, "stub.MomentumAndFIP", "no data for %s", inst.Code)
	}
	return m, nil
}

func testSelector(s *stubSignals) *Selector {
	return NewSelector(s, logger.New(logger.Config{Level: "error", Pretty: false}))
}

var asOf = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

func insts(codes ...string) []domain.Instrument {
	out := make([]domain.Instrument, len(codes))
	for i, c := range codes {
		out[i] = domain.Instrument{Code: c, Name: "ETF " + c}
	}
	return out
}

func TestSelectSingleWinner_HighestReturnWins(t *testing.T) {
	sel := testSelector(&stubSignals{returns: map[string]float64{
		"A": 12.5, "B": 8.1, "C": 20.0,
	}})

	result, err := sel.SelectSingleWinner(insts("A", "B", "C"), asOf)
	require.NoError(t, err)
	assert.Equal(t, "C", result.Winner.Instrument.Code)
	assert.Len(t, result.All, 3)
	// Ranking is descending.
	assert.Equal(t, "A", result.All[1].Instrument.Code)
}

func TestSelectSingleWinner_TieBreaksToLowestCode(t *testing.T) {
	sel := testSelector(&stubSignals{returns: map[string]float64{
		"360750": 15.0, "379800": 15.0,
	}})

	result, err := sel.SelectSingleWinner(insts("379800", "360750"), asOf)
	require.NoError(t, err)
	assert.Equal(t, "360750", result.Winner.Instrument.Code)
}

func TestSelectSingleWinner_SkipsUnavailable(t *testing.T) {
	sel := testSelector(&stubSignals{returns: map[string]float64{"A": 5.0}})

	result, err := sel.SelectSingleWinner(insts("A", "B"), asOf)
	require.NoError(t, err)
	assert.Equal(t, "A", result.Winner.Instrument.Code)
	assert.Equal(t, []string{"B"}, result.Skipped)
}

func TestSelectSingleWinner_AllUnavailable(t *testing.T) {
	sel := testSelector(&stubSignals{returns: map[string]float64{}})

	_, err := sel.SelectSingleWinner(insts("A", "B"), asOf)
	require.Error(t, err)
	assert.True(t, domain.IsDataUnavailable(err))
}

func mom(code string, momentum, fip float64) *domain.MomentumResult {
	return &domain.MomentumResult{
		Instrument: domain.Instrument{Code: code, Name: "ETF " + code},
		Momentum:   momentum,
		FIP:        fip,
		EndPrice:   10000,
	}
}

func TestSelectRanked_TopMomentumThenBottomFIP(t *testing.T) {
	sel := testSelector(&stubSignals{momentum: map[string]*domain.MomentumResult{
		"A": mom("A", 0.50, -0.10),
		"B": mom("B", 0.40, 0.20),
		"C": mom("C", 0.30, -0.30),
		"D": mom("D", 0.20, -0.40),
		"E": mom("E", 0.01, -0.90), // Great FIP but falls below momentum cut
	}})

	result, err := sel.SelectRanked(insts("A", "B", "C", "D", "E"), asOf,
		RankedConfig{TopMomentumCount: 4, BottomFIPCount: 2})
	require.NoError(t, err)

	require.Len(t, result.TopPool, 4)
	require.Len(t, result.Picks, 2)
	// FIP ascending within the momentum pool: D (-0.40), C (-0.30).
	assert.Equal(t, "D", result.Picks[0].Instrument.Code)
	assert.Equal(t, "C", result.Picks[1].Instrument.Code)
}

func TestSelectRanked_ShrinksCutsOnSmallUniverse(t *testing.T) {
	sel := testSelector(&stubSignals{momentum: map[string]*domain.MomentumResult{
		"A": mom("A", 0.50, -0.10),
		"B": mom("B", 0.40, 0.20),
	}})

	result, err := sel.SelectRanked(insts("A", "B", "C"), asOf,
		RankedConfig{TopMomentumCount: 100, BottomFIPCount: 10})
	require.NoError(t, err)
	assert.Len(t, result.Picks, 2)
	assert.Equal(t, []string{"C"}, result.Skipped)
}

func TestSelectRanked_EmptyUniverse(t *testing.T) {
	sel := testSelector(&stubSignals{momentum: map[string]*domain.MomentumResult{}})

	_, err := sel.SelectRanked(insts("A"), asOf, RankedConfig{})
	require.Error(t, err)
	assert.True(t, domain.IsDataUnavailable(err))
}

func TestSizeSingleWinner(t *testing.T) {
	target := SizeSingleWinner(domain.Instrument{Code: "379800", Name: "KODEX"},
		10_000_000, 50_000, 0.99)

	// 10,000,000 * 0.99 / 50,000 = 198 shares.
	assert.Equal(t, int64(198), target.Quantity)
	assert.Equal(t, int64(50_000), target.ReferencePrice)
}

func TestSizeSingleWinner_ZeroPrice(t *testing.T) {
	target := SizeSingleWinner(domain.Instrument{Code: "379800"}, 10_000_000, 0, 0.99)
	assert.Equal(t, int64(0), target.Quantity)
}

func TestSizeEqualWeight(t *testing.T) {
	picks := []domain.MomentumResult{
		*mom("A", 0.5, -0.1),
		*mom("B", 0.4, -0.2),
	}
	picks[0].EndPrice = 33_000
	picks[1].EndPrice = 7_000

	targets := SizeEqualWeight(picks, 1_000_000)
	require.Len(t, targets, 2)
	// 500,000 per leg: floor(500000/33000)=15, floor(500000/7000)=71.
	assert.Equal(t, int64(15), targets[0].Quantity)
	assert.Equal(t, int64(71), targets[1].Quantity)
}

func TestSizeEqualWeight_Empty(t *testing.T) {
	assert.Nil(t, SizeEqualWeight(nil, 1_000_000))
}
