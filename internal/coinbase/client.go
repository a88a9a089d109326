package coinbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"cb-swing-bot/internal/gateway"
	"cb-swing-bot/internal/pricing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	LiveBaseURL    = "https://api.pro.coinbase.com"
	SandboxBaseURL = "https://api-public.sandbox.pro.coinbase.com"

	LiveWSURL    = "wss://ws-feed.pro.coinbase.com"
	SandboxWSURL = "wss://ws-feed-public.sandbox.pro.coinbase.com"
)

// Client implements gateway.Gateway against the Coinbase Pro REST API.
type Client struct {
	baseURL string
	creds   Credentials
	http    *http.Client
	log     *zap.Logger
}

func New(baseURL string, creds Credentials, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		http: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *Client) GetTicker(ctx context.Context, productID string) (gateway.Ticker, error) {
	var ticker productTicker
	if err := c.get(ctx, "/products/"+productID+"/ticker", false, &ticker); err != nil {
		return gateway.Ticker{}, err
	}
	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return gateway.Ticker{}, fmt.Errorf("bad ticker price %q: %w", ticker.Price, err)
	}
	at, err := time.Parse(time.RFC3339Nano, ticker.Time)
	if err != nil {
		at = time.Now().UTC()
	}
	return gateway.Ticker{Price: price, Time: at}, nil
}

func (c *Client) ListAccounts(ctx context.Context) ([]gateway.Balance, error) {
	var accounts []accountResponse
	if err := c.get(ctx, "/accounts", true, &accounts); err != nil {
		return nil, err
	}
	balances := make([]gateway.Balance, 0, len(accounts))
	for _, acct := range accounts {
		balance, err := parseBalance(acct)
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}
	return balances, nil
}

func (c *Client) GetAccount(ctx context.Context, id string) (gateway.Balance, error) {
	var acct accountResponse
	if err := c.get(ctx, "/accounts/"+id, true, &acct); err != nil {
		return gateway.Balance{}, err
	}
	return parseBalance(acct)
}

// SubmitOrder posts a market order. A rejection from the exchange is
// reported through the result, not as an error.
func (c *Client) SubmitOrder(ctx context.Context, req gateway.OrderRequest) (gateway.OrderResult, error) {
	wire := orderRequest{
		ClientOID: req.ClientOrderID,
		ProductID: req.ProductID,
		Type:      "market",
		Side:      string(req.Side),
	}
	if !req.Funds.IsZero() {
		wire.Funds = req.Funds.Round(pricing.PriceDecimals).String()
	}
	if !req.Size.IsZero() {
		wire.Size = req.Size.String()
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return gateway.OrderResult{}, err
	}
	resp, body, err := c.do(ctx, http.MethodPost, "/orders", true, payload)
	if err != nil {
		return gateway.OrderResult{}, err
	}
	if resp.StatusCode == http.StatusBadRequest {
		var apiErr apiError
		reason := "order rejected"
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			reason = apiErr.Message
		}
		return gateway.OrderResult{Filled: false, Reason: reason}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gateway.OrderResult{}, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	var order orderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return gateway.OrderResult{}, err
	}
	if order.Status == "rejected" {
		return gateway.OrderResult{OrderID: order.ID, Filled: false, Reason: "order rejected"}, nil
	}
	return gateway.OrderResult{
		OrderID:   order.ID,
		Filled:    true,
		FillPrice: fillPrice(order),
	}, nil
}

// fillPrice derives the average execution price when the response already
// carries execution totals; zero otherwise and the caller falls back to the
// evaluated market price.
func fillPrice(order orderResponse) decimal.Decimal {
	executed, err := decimal.NewFromString(order.ExecutedValue)
	if err != nil || executed.IsZero() {
		return decimal.Zero
	}
	filled, err := decimal.NewFromString(order.FilledSize)
	if err != nil || filled.IsZero() {
		return decimal.Zero
	}
	return executed.Div(filled).Round(pricing.PriceDecimals)
}

func parseBalance(acct accountResponse) (gateway.Balance, error) {
	available, err := decimal.NewFromString(acct.Available)
	if err != nil {
		return gateway.Balance{}, fmt.Errorf("account %s: bad available %q: %w", acct.Currency, acct.Available, err)
	}
	hold, err := decimal.NewFromString(acct.Hold)
	if err != nil {
		return gateway.Balance{}, fmt.Errorf("account %s: bad hold %q: %w", acct.Currency, acct.Hold, err)
	}
	return gateway.Balance{
		ID:        acct.ID,
		Currency:  acct.Currency,
		Available: available,
		Hold:      hold,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, signed bool, out interface{}) error {
	resp, body, err := c.do(ctx, http.MethodGet, path, signed, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func (c *Client) do(ctx context.Context, method, path string, signed bool, payload []byte) (*http.Response, []byte, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if signed {
		if err := c.signRequest(ctx, req, method, path, string(payload)); err != nil {
			return nil, nil, err
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

func (c *Client) signRequest(ctx context.Context, req *http.Request, method, path, body string) error {
	timestamp, err := c.serverTime(ctx)
	if err != nil {
		return fmt.Errorf("server time: %w", err)
	}
	signature, err := c.creds.sign(timestamp, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("CB-ACCESS-KEY", c.creds.Key)
	req.Header.Set("CB-ACCESS-SIGN", signature)
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("CB-ACCESS-PASSPHRASE", c.creds.Passphrase)
	return nil
}

// serverTime returns the exchange clock as a unix-seconds string. Signing
// with the exchange clock avoids rejects from local skew.
func (c *Client) serverTime(ctx context.Context) (string, error) {
	resp, body, err := c.do(ctx, http.MethodGet, "/time", false, nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	var t serverTime
	if err := json.Unmarshal(body, &t); err != nil {
		return "", err
	}
	return strconv.FormatFloat(t.Epoch, 'f', -1, 64), nil
}
