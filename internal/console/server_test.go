package console

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fxmarket/internal/market"
)

func testServer(t *testing.T) (*Server, *market.MarketEngine) {
	t.Helper()
	e := market.NewWithQuantities("alpha", market.Config{
		Markup: 1, Discount: 1, MaxTicks: 10, StartingCapital: 100000,
	}, 10000, 5000, 5000, 5000, nil)
	s := NewServer(map[string]*market.MarketEngine{"alpha": e}, "test-secret")
	return s, e
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginAndAuthenticatedMarketRoute(t *testing.T) {
	s, _ := testServer(t)
	router := s.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/register", map[string]string{
		"Name": "alice", "Password": "hunter22",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("register: status %d, body %s", rec.Code, rec.Body.String())
	}
	var regResp struct{ Token string }
	if err := json.NewDecoder(rec.Body).Decode(&regResp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/markets/alpha/goods", nil, regResp.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("goods: status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRouteRejectsMissingToken(t *testing.T) {
	s, _ := testServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/api/markets/alpha/goods", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLockBuyAndBuyRoundTripOverHTTP(t *testing.T) {
	s, _ := testServer(t)
	router := s.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/register", map[string]string{
		"Name": "bob", "Password": "hunter22",
	}, "")
	var regResp struct{ Token string }
	json.NewDecoder(rec.Body).Decode(&regResp)

	rec = doJSON(t, router, http.MethodPost, "/api/markets/alpha/lock_buy", map[string]any{
		"Kind": 1, "Qty": 100, "Bid": 1000,
	}, regResp.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("lock_buy: status %d, body %s", rec.Code, rec.Body.String())
	}
	var lockResp struct{ Token string }
	json.NewDecoder(rec.Body).Decode(&lockResp)

	rec = doJSON(t, router, http.MethodPost, "/api/markets/alpha/buy", map[string]any{
		"Token": lockResp.Token,
		"Payer": map[string]any{"Kind": 0, "Qty": 1000},
	}, regResp.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("buy: status %d, body %s", rec.Code, rec.Body.String())
	}
}
