package kis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsukang/momentum-trader/internal/domain"
)

func TestParseNumbers(t *testing.T) {
	n, err := parseInt(" 12,345 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), n)

	f, err := parseFloat("10234.56")
	require.NoError(t, err)
	assert.InDelta(t, 10234.56, f, 1e-9)

	_, err = parseInt("")
	assert.Error(t, err)
	_, err = parseFloat("n/a")
	assert.Error(t, err)
}

func TestTransformBars_DropsPaddingRows(t *testing.T) {
	var resp chartResponse
	resp.Output2 = []struct {
		Date   string `json:"stck_bsop_date"`
		Open   string `json:"stck_oprc"`
		High   string `json:"stck_hgpr"`
		Low    string `json:"stck_lwpr"`
		Close  string `json:"stck_clpr"`
		Volume string `json:"acml_vol"`
	}{
		{Date: "20260827", Open: "100", High: "110", Low: "95", Close: "105", Volume: "1000"},
		{Date: "", Close: ""},
		{Date: "20260826", Open: "98", High: "102", Low: "97", Close: "100", Volume: "900"},
	}

	bars, err := transformBars(resp)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 105.0, bars[0].Close)
	assert.Equal(t, int64(1000), bars[0].Volume)
}

func TestSortAndDedupeBars(t *testing.T) {
	d := func(s string) time.Time {
		dt, err := time.Parse("20060102", s)
		require.NoError(t, err)
		return dt
	}

	bars := []domain.Bar{
		{Date: d("20260827"), Close: 105},
		{Date: d("20260825"), Close: 99},
		{Date: d("20260826"), Close: 100},
		{Date: d("20260826"), Close: 100},
	}

	sortBarsAscending(bars)
	got := dedupeBars(bars)

	require.Len(t, got, 3)
	assert.True(t, got[0].Date.Before(got[1].Date))
	assert.True(t, got[1].Date.Before(got[2].Date))
	assert.Equal(t, 105.0, got[2].Close)
}

func TestTransformHoldings_FiltersZeroQuantity(t *testing.T) {
	resp := &balanceResponse{}
	resp.Output1 = []struct {
		Code     string `json:"pdno"`
		Name     string `json:"prdt_name"`
		Quantity string `json:"hldg_qty"`
	}{
		{Code: "379800", Name: "KODEX US S&P500", Quantity: "10"},
		{Code: "360750", Name: "TIGER US S&P500", Quantity: "0"},
		{Code: "305540", Name: "TIGER 2차전지", Quantity: "bad"},
	}

	holdings := transformHoldings(resp)
	require.Len(t, holdings, 1)
	assert.Equal(t, "379800", holdings[0].Code)
	assert.Equal(t, int64(10), holdings[0].Quantity)
}
