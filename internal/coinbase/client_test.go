package coinbase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cb-swing-bot/internal/gateway"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var testCreds = Credentials{
	Key:        "key",
	Secret:     base64.StdEncoding.EncodeToString([]byte("super-secret")),
	Passphrase: "pass",
}

func testServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := New(server.URL, testCreds, 5*time.Second, zap.NewNop())
	return server, client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestGetTicker(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/BTC-GBP/ticker" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		writeJSON(t, w, productTicker{Price: "27123.456", Time: "2023-01-02T15:04:05.999999Z"})
	})
	ticker, err := client.GetTicker(context.Background(), "BTC-GBP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticker.Price.String() != "27123.456" {
		t.Fatalf("expected price 27123.456, got %s", ticker.Price)
	}
}

func TestListAccountsSignsRequest(t *testing.T) {
	var gotHeaders http.Header
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/time":
			writeJSON(t, w, serverTime{Epoch: 1700000000})
		case "/accounts":
			gotHeaders = r.Header.Clone()
			writeJSON(t, w, []accountResponse{
				{ID: "a1", Currency: "GBP", Available: "120.5", Hold: "0"},
				{ID: "a2", Currency: "BTC", Available: "0.25", Hold: "0.01"},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	balances, err := client.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(balances))
	}
	if !balances[0].Available.Equal(decimal.RequireFromString("120.5")) {
		t.Fatalf("expected available 120.5, got %s", balances[0].Available)
	}
	if gotHeaders.Get("CB-ACCESS-KEY") != "key" || gotHeaders.Get("CB-ACCESS-PASSPHRASE") != "pass" {
		t.Fatalf("missing auth headers: %v", gotHeaders)
	}
	timestamp := gotHeaders.Get("CB-ACCESS-TIMESTAMP")
	if timestamp != "1700000000" {
		t.Fatalf("expected server timestamp, got %q", timestamp)
	}
	want, err := testCreds.sign(timestamp, http.MethodGet, "/accounts", "")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if gotHeaders.Get("CB-ACCESS-SIGN") != want {
		t.Fatalf("signature mismatch: got %q want %q", gotHeaders.Get("CB-ACCESS-SIGN"), want)
	}
}

func TestSubmitOrderFilled(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/time":
			writeJSON(t, w, serverTime{Epoch: 1700000000})
		case "/orders":
			body, _ := io.ReadAll(r.Body)
			var wire orderRequest
			if err := json.Unmarshal(body, &wire); err != nil {
				t.Fatalf("bad order payload: %v", err)
			}
			if wire.Type != "market" || wire.Side != "buy" || wire.Funds != "25.125" {
				t.Fatalf("unexpected order payload: %+v", wire)
			}
			writeJSON(t, w, orderResponse{
				ID:            "o1",
				Status:        "done",
				FilledSize:    "0.5",
				ExecutedValue: "49",
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	result, err := client.SubmitOrder(context.Background(), gateway.OrderRequest{
		ClientOrderID: "cid-1",
		ProductID:     "BTC-GBP",
		Side:          gateway.SideBuy,
		Funds:         decimal.RequireFromString("25.125"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Filled {
		t.Fatalf("expected filled result, got %+v", result)
	}
	if result.FillPrice.String() != "98" {
		t.Fatalf("expected fill price 98, got %s", result.FillPrice)
	}
}

func TestSubmitOrderRejected(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/time":
			writeJSON(t, w, serverTime{Epoch: 1700000000})
		case "/orders":
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(t, w, apiError{Message: "Insufficient funds"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	result, err := client.SubmitOrder(context.Background(), gateway.OrderRequest{
		ClientOrderID: "cid-2",
		ProductID:     "BTC-GBP",
		Side:          gateway.SideBuy,
		Funds:         decimal.RequireFromString("25"),
	})
	if err != nil {
		t.Fatalf("rejection must not be an error, got %v", err)
	}
	if result.Filled {
		t.Fatalf("expected unfilled result")
	}
	if result.Reason != "Insufficient funds" {
		t.Fatalf("expected reason from api message, got %q", result.Reason)
	}
}

func TestSubmitOrderServerFault(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/time":
			writeJSON(t, w, serverTime{Epoch: 1700000000})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	_, err := client.SubmitOrder(context.Background(), gateway.OrderRequest{
		ClientOrderID: "cid-3",
		ProductID:     "BTC-GBP",
		Side:          gateway.SideSell,
		Size:          decimal.RequireFromString("0.1"),
	})
	if err == nil {
		t.Fatalf("expected transport-level fault to propagate")
	}
}
