package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// BungeeClient talks to the Bungee inbox quote API. A quote prices one
// stablecoin-to-native delivery and returns the routing parameters the inbox
// request must carry.
type BungeeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewBungeeClient creates a quote client. apiKey may be empty for public rate
// limits.
func NewBungeeClient(baseURL, apiKey string, timeout time.Duration) *BungeeClient {
	if baseURL == "" {
		baseURL = "https://public-backend.bungee.exchange/api/v1"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &BungeeClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BungeeQuoteRequest represents a gas delivery quote request
type BungeeQuoteRequest struct {
	OriginChainID      uint64 `json:"originChainId"`
	DestinationChainID uint64 `json:"destinationChainId"`
	InputToken         string `json:"inputToken"`
	InputAmount        string `json:"inputAmount"`
	ReceiverAddress    string `json:"receiverAddress"`
}

// BungeeQuoteResponse represents the routing parameters returned for a quote
type BungeeQuoteResponse struct {
	QuoteID       string `json:"quoteId"`
	BungeeGateway string `json:"bungeeGateway"`
	SwitchboardID string `json:"switchboardId"`
	Route         struct {
		OutputToken     string `json:"outputToken"`
		OutputAmount    string `json:"outputAmount"`
		MinOutputAmount string `json:"minOutputAmount"`
		RefuelAmount    string `json:"refuelAmount"`
		MinDestGas      string `json:"minDestGas"`
		EstimatedTime   int    `json:"estimatedTime"` // seconds
	} `json:"route"`
	// RequestHash is the server-side rendering of the request hash for this
	// quote. The dispatcher recomputes the hash locally and refuses to forward
	// on mismatch.
	RequestHash string `json:"requestHash"`
}

// GetQuote fetches a quote for one refuel delivery.
func (c *BungeeClient) GetQuote(ctx context.Context, req *BungeeQuoteRequest) (*BungeeQuoteResponse, error) {
	params := url.Values{}
	params.Add("originChainId", fmt.Sprintf("%d", req.OriginChainID))
	params.Add("destinationChainId", fmt.Sprintf("%d", req.DestinationChainID))
	params.Add("inputToken", req.InputToken)
	params.Add("inputAmount", req.InputAmount)
	params.Add("receiverAddress", req.ReceiverAddress)

	reqURL := fmt.Sprintf("%s/quote?%s", c.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Bungee API error (status %d): %s", resp.StatusCode, string(body))
	}

	var quoteResp BungeeQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quoteResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &quoteResp, nil
}
