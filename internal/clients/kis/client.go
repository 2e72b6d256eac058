// Package kis provides client functionality for the Korea Investment &
// Securities (KIS) domestic-stock REST API. It implements
// domain.BrokerClient and is the only place broker failures are
// classified into error kinds.
package kis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/minsukang/momentum-trader/internal/domain"
)

const (
	trIDQuote     = "FHKST01010100"
	trIDChart     = "FHKST03010100"
	trIDNav       = "FHPST02440200"
	trIDDividend  = "HHKDB669102C0"
	trIDBalance   = "TTTC8434R"
	trIDStockInfo = "CTPF1002R"
	trIDOrderSell = "TTTC0801U"
	trIDOrderBuy  = "TTTC0802U"

	ordDivisionLimit  = "00"
	ordDivisionMarket = "01"
	ordDivisionBest   = "03"

	// The daily chart endpoint caps one page at 100 bars.
	chartPageDays = 100
)

// Client talks to the KIS REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appKey     string
	appSecret  string
	accountNo  string // "12345678-01" split into CANO and product code
	token      token
	now        func() time.Time
	log        zerolog.Logger
}

// Config holds KIS connection settings.
type Config struct {
	BaseURL   string
	AppKey    string
	AppSecret string
	AccountNo string
}

// NewClient creates a new KIS client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		appKey:     cfg.AppKey,
		appSecret:  cfg.AppSecret,
		accountNo:  cfg.AccountNo,
		now:        time.Now,
		log:        log.With().Str("client", "kis").Logger(),
	}
}

var _ domain.BrokerClient = (*Client)(nil)

func (c *Client) account() (cano, productCode string) {
	parts := strings.SplitN(c.accountNo, "-", 2)
	cano = parts[0]
	productCode = "01"
	if len(parts) == 2 {
		productCode = parts[1]
	}
	return cano, productCode
}

// get performs an authenticated GET and decodes the response into out,
// which must embed envelope.
func (c *Client) get(op, path, trID string, params url.Values, out interface{}) error {
	tok, err := c.ensureToken()
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req, trID, tok)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(op, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return classifyTransport(op, err)
	}
	return c.checkEnvelope(op, out)
}

// post performs an authenticated POST with a JSON body.
func (c *Client) post(op, path, trID string, body interface{}, out interface{}) error {
	tok, err := c.ensureToken()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req, trID, tok)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(op, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return classifyTransport(op, err)
	}
	return c.checkEnvelope(op, out)
}

func (c *Client) setHeaders(req *http.Request, trID, tok string) {
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("authorization", "Bearer "+tok)
	req.Header.Set("appkey", c.appKey)
	req.Header.Set("appsecret", c.appSecret)
	req.Header.Set("tr_id", trID)
	req.Header.Set("custtype", "P")
}

type envelopeCarrier interface{ env() envelope }

func (e envelope) env() envelope { return e }

func (c *Client) checkEnvelope(op string, out interface{}) error {
	carrier, ok := out.(envelopeCarrier)
	if !ok {
		return nil
	}
	env := carrier.env()
	if env.RtCd != "0" {
		c.log.Warn().
			Str("op", op).
			Str("msg_cd", env.MsgCd).
			Str("msg", env.Msg1).
			Msg("Broker rejected request")
		return rejectionError(op, env.MsgCd, env.Msg1)
	}
	return nil
}

// GetQuote returns the current price in KRW.
func (c *Client) GetQuote(code string) (int64, error) {
	params := url.Values{}
	params.Set("fid_cond_mrkt_div_code", "J")
	params.Set("fid_input_iscd", code)

	var resp quoteResponse
	if err := c.get("kis.GetQuote", "/uapi/domestic-stock/v1/quotations/inquire-price", trIDQuote, params, &resp); err != nil {
		return 0, err
	}

	price, err := parseInt(resp.Output.Price)
	if err != nil || price <= 0 {
		return 0, domain.Errorf(domain.KindDataUnavailable, "kis.GetQuote",
			"no valid price for %s: %q", code, resp.Output.Price)
	}

	c.log.Debug().Str("code", code).Int64("price", price).Msg("Fetched quote")
	return price, nil
}

// GetDailyBars returns date-ordered daily bars for [start, end], paging
// backwards through the chart endpoint's 100-bar windows.
func (c *Client) GetDailyBars(code string, start, end time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	windowEnd := end

	for !windowEnd.Before(start) {
		windowStart := windowEnd.AddDate(0, 0, -(chartPageDays - 1))
		if windowStart.Before(start) {
			windowStart = start
		}

		params := url.Values{}
		params.Set("fid_cond_mrkt_div_code", "J")
		params.Set("fid_input_iscd", code)
		params.Set("fid_input_date_1", windowStart.Format("20060102"))
		params.Set("fid_input_date_2", windowEnd.Format("20060102"))
		params.Set("fid_period_div_code", "D")
		params.Set("fid_org_adj_prc", "0") // Adjusted prices

		var resp chartResponse
		if err := c.get("kis.GetDailyBars", "/uapi/domestic-stock/v1/quotations/inquire-daily-itemchartprice", trIDChart, params, &resp); err != nil {
			return nil, err
		}

		page, err := transformBars(resp)
		if err != nil {
			return nil, domain.NewError(domain.KindDataUnavailable, "kis.GetDailyBars", err)
		}
		bars = append(bars, page...)

		windowEnd = windowStart.AddDate(0, 0, -1)
	}

	sortBarsAscending(bars)
	bars = dedupeBars(bars)
	c.log.Debug().Str("code", code).Int("bars", len(bars)).Msg("Fetched daily bars")
	return bars, nil
}

// GetNav returns the fund NAV observed on date.
func (c *Client) GetNav(code string, date time.Time) (float64, error) {
	day := date.Format("20060102")
	params := url.Values{}
	params.Set("fid_cond_mrkt_div_code", "J")
	params.Set("fid_input_iscd", code)
	params.Set("fid_input_date_1", day)
	params.Set("fid_input_date_2", day)

	var resp navResponse
	if err := c.get("kis.GetNav", "/uapi/etfetn/v1/quotations/nav-comparison-daily-trend", trIDNav, params, &resp); err != nil {
		return 0, err
	}

	if len(resp.Output) == 0 {
		return 0, domain.Errorf(domain.KindDataUnavailable, "kis.GetNav",
			"no NAV observation for %s on %s", code, day)
	}
	nav, err := parseFloat(resp.Output[0].Nav)
	if err != nil || nav <= 0 {
		return 0, domain.Errorf(domain.KindDataUnavailable, "kis.GetNav",
			"invalid NAV for %s on %s: %q", code, day, resp.Output[0].Nav)
	}
	return nav, nil
}

// GetDividends sums per-share cash distributions over [start, end].
func (c *Client) GetDividends(code string, start, end time.Time) (float64, error) {
	params := url.Values{}
	params.Set("cts", "")
	params.Set("gb1", "0")
	params.Set("f_dt", start.Format("20060102"))
	params.Set("t_dt", end.Format("20060102"))
	params.Set("sht_cd", code)
	params.Set("high_gb", "")

	var resp dividendResponse
	if err := c.get("kis.GetDividends", "/uapi/domestic-stock/v1/ksdinfo/dividend", trIDDividend, params, &resp); err != nil {
		return 0, err
	}

	var total float64
	for _, div := range resp.Output1 {
		amount, err := parseFloat(div.PerShareAmount)
		if err != nil {
			continue
		}
		total += amount
	}

	c.log.Debug().Str("code", code).Float64("total", total).Int("count", len(resp.Output1)).Msg("Fetched dividends")
	return total, nil
}

// GetInstrumentName resolves a display name for code.
func (c *Client) GetInstrumentName(code string) (string, error) {
	params := url.Values{}
	params.Set("PRDT_TYPE_CD", "300")
	params.Set("PDNO", code)

	var resp stockInfoResponse
	if err := c.get("kis.GetInstrumentName", "/uapi/domestic-stock/v1/quotations/search-stock-info", trIDStockInfo, params, &resp); err != nil {
		return "", err
	}
	if resp.Output.ShortName == "" {
		return "", domain.Errorf(domain.KindDataUnavailable, "kis.GetInstrumentName",
			"no name for %s", code)
	}
	return resp.Output.ShortName, nil
}

// GetHoldings returns all positions with positive quantity.
func (c *Client) GetHoldings() ([]domain.Holding, error) {
	resp, err := c.fetchBalance("kis.GetHoldings")
	if err != nil {
		return nil, err
	}
	return transformHoldings(resp), nil
}

// GetTotalValue returns the account's total evaluation in KRW.
func (c *Client) GetTotalValue() (int64, error) {
	resp, err := c.fetchBalance("kis.GetTotalValue")
	if err != nil {
		return 0, err
	}
	if len(resp.Output2) == 0 {
		return 0, domain.Errorf(domain.KindDataUnavailable, "kis.GetTotalValue",
			"balance response missing summary")
	}
	total, err := parseInt(resp.Output2[0].TotalValue)
	if err != nil {
		return 0, domain.Errorf(domain.KindDataUnavailable, "kis.GetTotalValue",
			"invalid total value: %q", resp.Output2[0].TotalValue)
	}
	return total, nil
}

func (c *Client) fetchBalance(op string) (*balanceResponse, error) {
	cano, productCode := c.account()
	params := url.Values{}
	params.Set("CANO", cano)
	params.Set("ACNT_PRDT_CD", productCode)
	params.Set("AFHR_FLPR_YN", "N")
	params.Set("OFL_YN", "")
	params.Set("INQR_DVSN", "02")
	params.Set("UNPR_DVSN", "01")
	params.Set("FUND_STTL_ICLD_YN", "N")
	params.Set("FNCG_AMT_AUTO_RDPT_YN", "N")
	params.Set("PRCS_DVSN", "00")
	params.Set("CTX_AREA_FK100", "")
	params.Set("CTX_AREA_NK100", "")

	var resp balanceResponse
	if err := c.get(op, "/uapi/domestic-stock/v1/trading/inquire-balance", trIDBalance, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlaceMarketSell submits a market sell for qty shares.
func (c *Client) PlaceMarketSell(code string, qty int64) (*domain.OrderHandle, error) {
	return c.placeOrder("kis.PlaceMarketSell", trIDOrderSell, code, qty, 0, ordDivisionMarket)
}

// PlaceLimitBuy submits a limit buy for qty shares at price.
func (c *Client) PlaceLimitBuy(code string, qty, price int64, condition domain.OrderCondition) (*domain.OrderHandle, error) {
	division := ordDivisionLimit
	if condition == domain.ConditionBest {
		division = ordDivisionBest
	}
	return c.placeOrder("kis.PlaceLimitBuy", trIDOrderBuy, code, qty, price, division)
}

func (c *Client) placeOrder(op, trID, code string, qty, price int64, division string) (*domain.OrderHandle, error) {
	if qty <= 0 {
		return nil, domain.Errorf(domain.KindTerminal, op, "invalid quantity %d for %s", qty, code)
	}

	cano, productCode := c.account()
	body := map[string]string{
		"CANO":         cano,
		"ACNT_PRDT_CD": productCode,
		"PDNO":         code,
		"ORD_DVSN":     division,
		"ORD_QTY":      fmt.Sprintf("%d", qty),
		"ORD_UNPR":     fmt.Sprintf("%d", price),
	}

	c.log.Info().
		Str("code", code).
		Str("tr_id", trID).
		Int64("qty", qty).
		Int64("price", price).
		Str("division", division).
		Msg("Submitting order")

	var resp orderResponse
	if err := c.post(op, "/uapi/domestic-stock/v1/trading/order-cash", trID, body, &resp); err != nil {
		return nil, err
	}

	return &domain.OrderHandle{OrderID: resp.Output.OrderNo, Code: code}, nil
}
