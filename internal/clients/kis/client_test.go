package kis

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsukang/momentum-trader/internal/domain"
	"github.com/minsukang/momentum-trader/pkg/logger"
)

// newTestClient points a client at an httptest server that answers the
// token endpoint plus whatever the handler provides.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/tokenP", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "test-token",
			TokenType:   "Bearer",
			ExpiresIn:   86400,
		})
	})
	mux.HandleFunc("/", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	c := NewClient(Config{
		BaseURL:   srv.URL,
		AppKey:    "key",
		AppSecret: "secret",
		AccountNo: "12345678-01",
	}, log)
	c.httpClient = srv.Client()
	return c
}

func TestGetQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, trIDQuote, r.Header.Get("tr_id"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("authorization"))
		_, _ = w.Write([]byte(`{"rt_cd":"0","msg_cd":"","msg1":"","output":{"stck_prpr":"50000"}}`))
	})

	price, err := c.GetQuote("379800")
	require.NoError(t, err)
	assert.Equal(t, int64(50000), price)
}

func TestGetQuote_RejectionClassified(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rt_cd":"1","msg_cd":"APBK0919","msg1":"영업일이 아닙니다"}`))
	})

	_, err := c.GetQuote("379800")
	require.Error(t, err)
	assert.True(t, domain.IsTerminal(err))
}

func TestGetNav_MissingObservation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rt_cd":"0","msg_cd":"","msg1":"","output":[]}`))
	})

	_, err := c.GetNav("379800", time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, domain.IsDataUnavailable(err))
}

func TestGetNav_Valid(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rt_cd":"0","msg_cd":"","msg1":"","output":[{"nav":"15234.56"}]}`))
	})

	nav, err := c.GetNav("379800", time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.InDelta(t, 15234.56, nav, 1e-9)
}

func TestGetHoldings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12345678", r.URL.Query().Get("CANO"))
		assert.Equal(t, "01", r.URL.Query().Get("ACNT_PRDT_CD"))
		_, _ = w.Write([]byte(`{"rt_cd":"0","msg_cd":"","msg1":"",
			"output1":[{"pdno":"379800","prdt_name":"KODEX US S&P500","hldg_qty":"198"}],
			"output2":[{"tot_evlu_amt":"10000000"}]}`))
	})

	holdings, err := c.GetHoldings()
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, int64(198), holdings[0].Quantity)

	total, err := c.GetTotalValue()
	require.NoError(t, err)
	assert.Equal(t, int64(10000000), total)
}

func TestPlaceLimitBuy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, trIDOrderBuy, r.Header.Get("tr_id"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "379800", body["PDNO"])
		assert.Equal(t, "198", body["ORD_QTY"])
		assert.Equal(t, "50000", body["ORD_UNPR"])
		assert.Equal(t, ordDivisionBest, body["ORD_DVSN"])

		_, _ = w.Write([]byte(`{"rt_cd":"0","msg_cd":"","msg1":"","output":{"ODNO":"0000117057"}}`))
	})

	handle, err := c.PlaceLimitBuy("379800", 198, 50000, domain.ConditionBest)
	require.NoError(t, err)
	assert.Equal(t, "0000117057", handle.OrderID)
}

func TestPlaceMarketSell_ZeroQuantityTerminal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for invalid quantity")
	})

	_, err := c.PlaceMarketSell("379800", 0)
	require.Error(t, err)
	assert.True(t, domain.IsTerminal(err))
}

func TestTokenReuse(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"rt_cd":"0","msg_cd":"","msg1":"","output":{"stck_prpr":"1000"}}`))
	})

	_, err := c.GetQuote("379800")
	require.NoError(t, err)
	_, err = c.GetQuote("379800")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, c.token.valid(time.Now()))
}
