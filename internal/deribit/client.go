package deribit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://www.deribit.com/api/v2"

// Client fetches index prices from the Deribit public API.
//
// Every failure mode (network error, non-200 status, malformed body,
// missing price field) is logged and reported as ok=false — the client
// never returns an error to the caller, and it never retries. A missed
// price is simply picked up on the next cycle.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// indexPriceResponse covers both shapes Deribit has been observed to
// return: the price nested under a "result" wrapper, or flat at the
// top level. The wrapper takes priority when present.
type indexPriceResponse struct {
	Result *struct {
		IndexPrice *decimal.Decimal `json:"index_price"`
	} `json:"result"`
	IndexPrice *decimal.Decimal `json:"index_price"`
}

func (r *indexPriceResponse) price() (decimal.Decimal, bool) {
	if r.Result != nil {
		if r.Result.IndexPrice == nil {
			return decimal.Decimal{}, false
		}
		return *r.Result.IndexPrice, true
	}
	if r.IndexPrice == nil {
		return decimal.Decimal{}, false
	}
	return *r.IndexPrice, true
}

// GetIndexPrice returns the current index price for the instrument.
// The caller is responsible for instrument validity; an unknown symbol
// surfaces as ok=false like any other upstream failure.
func (c *Client) GetIndexPrice(ctx context.Context, instrument string) (decimal.Decimal, bool) {
	u := fmt.Sprintf("%s/public/get_index_price?index_name=%s",
		c.baseURL, url.QueryEscape(instrument))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		fmt.Printf("[DERIBIT] %s: build request: %v\n", instrument, err)
		return decimal.Decimal{}, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		fmt.Printf("[DERIBIT] %s: request failed: %v\n", instrument, err)
		return decimal.Decimal{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		fmt.Printf("[DERIBIT] %s: HTTP %d: %s\n", instrument, resp.StatusCode, string(body))
		return decimal.Decimal{}, false
	}

	var data indexPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		fmt.Printf("[DERIBIT] %s: decode: %v\n", instrument, err)
		return decimal.Decimal{}, false
	}

	price, ok := data.price()
	if !ok {
		fmt.Printf("[DERIBIT] %s: index price missing from response\n", instrument)
		return decimal.Decimal{}, false
	}
	return price, true
}
