package kis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/minsukang/momentum-trader/internal/domain"
)

// token holds the cached OAuth access token. KIS tokens live 24h; a
// fresh one is fetched when fewer than 5 minutes remain.
type token struct {
	value     string
	expiresAt time.Time
}

func (t token) valid(now time.Time) bool {
	return t.value != "" && now.Before(t.expiresAt.Add(-5*time.Minute))
}

// ensureToken returns a valid access token, fetching one if needed.
func (c *Client) ensureToken() (string, error) {
	now := c.now()
	if c.token.valid(now) {
		return c.token.value, nil
	}

	body, err := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"appkey":     c.appKey,
		"appsecret":  c.appSecret,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/oauth2/tokenP", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport("kis.token", err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", classifyTransport("kis.token", err)
	}
	if resp.StatusCode != http.StatusOK || tr.AccessToken == "" {
		return "", domain.Errorf(domain.KindTerminal, "kis.token",
			"token request rejected with status %d", resp.StatusCode)
	}

	c.token = token{
		value:     tr.AccessToken,
		expiresAt: now.Add(time.Duration(tr.ExpiresIn) * time.Second),
	}
	c.log.Debug().Time("expires_at", c.token.expiresAt).Msg("Fetched new access token")
	return c.token.value, nil
}
