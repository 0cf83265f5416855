// utils/ton.go
package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrUpstream marks toncenter failures so handlers can answer 503 instead
// of a generic server error.
var ErrUpstream = errors.New("balance service unavailable")

// TonClient queries toncenter for on-chain TON balances.
type TonClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewTonClient(apiKey string) *TonClient {
	return &TonClient{
		BaseURL: "https://toncenter.com/api/v2",
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetAddressBalance returns the wallet balance in nanotons.
func (c *TonClient) GetAddressBalance(ctx context.Context, address string) (int64, error) {
	u, err := url.Parse(c.BaseURL + "/getAddressBalance")
	if err != nil {
		return 0, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("address", address)
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("❌ toncenter returned status %d: %s", resp.StatusCode, string(body))
		return 0, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var response struct {
		Ok     bool   `json:"ok"`
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	balance, err := strconv.ParseInt(response.Result, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unexpected balance %q", ErrUpstream, response.Result)
	}
	return balance, nil
}
