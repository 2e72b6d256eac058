package kis

// Wire formats for the KIS domestic-stock REST API. Every response
// carries the rt_cd/msg1 envelope; "0" means success.

type envelope struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type quoteResponse struct {
	envelope
	Output struct {
		Price string `json:"stck_prpr"` // Current price
	} `json:"output"`
}

type chartResponse struct {
	envelope
	Output2 []struct {
		Date   string `json:"stck_bsop_date"` // YYYYMMDD
		Open   string `json:"stck_oprc"`
		High   string `json:"stck_hgpr"`
		Low    string `json:"stck_lwpr"`
		Close  string `json:"stck_clpr"`
		Volume string `json:"acml_vol"`
	} `json:"output2"`
}

type navResponse struct {
	envelope
	Output []struct {
		Nav string `json:"nav"`
	} `json:"output"`
}

type dividendResponse struct {
	envelope
	Output1 []struct {
		PerShareAmount string `json:"per_sto_divi_amt"`
		RecordDate     string `json:"record_date"`
	} `json:"output1"`
}

type balanceResponse struct {
	envelope
	Output1 []struct {
		Code     string `json:"pdno"`
		Name     string `json:"prdt_name"`
		Quantity string `json:"hldg_qty"`
	} `json:"output1"`
	Output2 []struct {
		TotalValue string `json:"tot_evlu_amt"`
	} `json:"output2"`
}

type stockInfoResponse struct {
	envelope
	Output struct {
		ShortName string `json:"prdt_abrv_name"`
	} `json:"output"`
}

type orderResponse struct {
	envelope
	Output struct {
		OrderNo string `json:"ODNO"`
	} `json:"output"`
}
