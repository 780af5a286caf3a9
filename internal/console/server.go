// Package console is the HTTP+WS front end over one or more
// market.MarketEngine instances: trader registration/login, pricing
// and lock/settle routes, and a websocket feed of published events.
// None of this is part of the engine's own contract — the engine never
// depends on an HTTP transport existing — it exists to make the engine
// reachable over the wire.
package console

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fxmarket/internal/currency"
	"fxmarket/internal/market"
	"fxmarket/internal/txn"
)

// Server fronts a fixed set of named markets. Each market is its own
// *market.MarketEngine with its own mutex: the console never calls two
// engine methods concurrently for the same market, since the engine
// itself is not internally concurrent.
type Server struct {
	markets map[string]*guardedMarket
	traders *traderStore
	tokens  tokenIssuer
	hub     *hub
}

type guardedMarket struct {
	mu sync.Mutex
	e  *market.MarketEngine
}

// Lock and Unlock satisfy config.engineLock so a config.Reloader can
// guard hot-reload updates with the same mutex the console uses for
// trader requests.
func (g *guardedMarket) Lock()   { g.mu.Lock() }
func (g *guardedMarket) Unlock() { g.mu.Unlock() }

// NewServer builds a Server fronting markets, keyed by name. Each
// engine is wired to broadcast its events to the websocket hub under
// its own name.
func NewServer(markets map[string]*market.MarketEngine, jwtSecret string) *Server {
	h := newHub()
	wrapped := make(map[string]*guardedMarket, len(markets))
	for name, e := range markets {
		e.Subscribe(marketSubscriber{h: h, name: name})
		wrapped[name] = &guardedMarket{e: e}
	}
	return &Server{
		markets: wrapped,
		traders: newTraderStore(),
		tokens:  tokenIssuer{secret: []byte(jwtSecret)},
		hub:     h,
	}
}

// Guard returns the lock guarding a named market's engine, for wiring
// a config.Reloader against the same engine the console serializes
// calls through.
func (s *Server) Guard(name string) (*guardedMarket, bool) {
	g, ok := s.markets[name]
	return g, ok
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json200(w, map[string]string{"status": "ok"})
	})

	r.Post("/api/register", s.register)
	r.Post("/api/login", s.login)
	r.Get("/ws", s.hub.handleWS)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/api/markets", s.listMarkets)
		r.Get("/api/markets/{name}/goods", s.goods)
		r.Get("/api/markets/{name}/buy_price", s.buyPrice)
		r.Get("/api/markets/{name}/sell_price", s.sellPrice)
		r.Post("/api/markets/{name}/lock_buy", s.lockBuy)
		r.Post("/api/markets/{name}/lock_sell", s.lockSell)
		r.Post("/api/markets/{name}/buy", s.buy)
		r.Post("/api/markets/{name}/sell", s.sell)
		r.Get("/api/markets/{name}/history", s.history)
	})

	return r
}

// ── Auth ─────────────────────────────────────────────

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct{ Name, Password string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, 400, "invalid json")
		return
	}
	if req.Name == "" || len(req.Password) < 6 {
		jsonErr(w, 400, "name and password (min 6 chars) required")
		return
	}
	if err := s.traders.register(req.Name, req.Password); err != nil {
		jsonErr(w, 409, err.Error())
		return
	}
	token, err := s.tokens.issue(req.Name)
	if err != nil {
		jsonErr(w, 500, "token issue failed")
		return
	}
	json200(w, map[string]string{"token": token})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct{ Name, Password string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, 400, "invalid json")
		return
	}
	if !s.traders.authenticate(req.Name, req.Password) {
		jsonErr(w, 401, "invalid credentials")
		return
	}
	token, err := s.tokens.issue(req.Name)
	if err != nil {
		jsonErr(w, 500, "token issue failed")
		return
	}
	json200(w, map[string]string{"token": token})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, err := s.tokens.verify(r.Header.Get("Authorization"))
		if err != nil {
			jsonErr(w, 401, "missing or invalid token")
			return
		}
		ctx := contextWithTrader(r.Context(), name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ── Market routes ────────────────────────────────────

func (s *Server) listMarkets(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.markets))
	for name := range s.markets {
		names = append(names, name)
	}
	json200(w, names)
}

func (s *Server) marketNamed(w http.ResponseWriter, r *http.Request) (*guardedMarket, bool) {
	name := chi.URLParam(r, "name")
	g, ok := s.markets[name]
	if !ok {
		jsonErr(w, 404, "unknown market")
		return nil, false
	}
	return g, true
}

func (s *Server) goods(w http.ResponseWriter, r *http.Request) {
	g, ok := s.marketNamed(w, r)
	if !ok {
		return
	}
	g.Lock()
	goods := g.e.Goods()
	g.Unlock()
	json200(w, goods)
}

func parseKindQty(r *http.Request) (currency.Kind, float32, error) {
	var req struct {
		Kind currency.Kind
		Qty  float32
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, 0, err
	}
	return req.Kind, req.Qty, nil
}

func (s *Server) buyPrice(w http.ResponseWriter, r *http.Request) {
	g, ok := s.marketNamed(w, r)
	if !ok {
		return
	}
	k, q, err := parseKindQty(r)
	if err != nil {
		jsonErr(w, 400, "invalid request")
		return
	}
	g.Lock()
	price, err := g.e.BuyPrice(k, q)
	g.Unlock()
	if err != nil {
		jsonErr(w, 422, err.Error())
		return
	}
	json200(w, map[string]float32{"price": price})
}

func (s *Server) sellPrice(w http.ResponseWriter, r *http.Request) {
	g, ok := s.marketNamed(w, r)
	if !ok {
		return
	}
	k, q, err := parseKindQty(r)
	if err != nil {
		jsonErr(w, 400, "invalid request")
		return
	}
	g.Lock()
	price, err := g.e.SellPrice(k, q)
	g.Unlock()
	if err != nil {
		jsonErr(w, 422, err.Error())
		return
	}
	json200(w, map[string]float32{"price": price})
}

func (s *Server) lockBuy(w http.ResponseWriter, r *http.Request) {
	g, ok := s.marketNamed(w, r)
	if !ok {
		return
	}
	var req struct {
		Kind currency.Kind
		Qty  float32
		Bid  float32
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, 400, "invalid request")
		return
	}
	trader := traderFromContext(r.Context())
	g.Lock()
	token, err := g.e.LockBuy(req.Kind, req.Qty, req.Bid, trader)
	g.Unlock()
	if err != nil {
		jsonErr(w, 422, err.Error())
		return
	}
	json200(w, map[string]string{"token": token})
}

func (s *Server) lockSell(w http.ResponseWriter, r *http.Request) {
	g, ok := s.marketNamed(w, r)
	if !ok {
		return
	}
	var req struct {
		Kind  currency.Kind
		Qty   float32
		Offer float32
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, 400, "invalid request")
		return
	}
	trader := traderFromContext(r.Context())
	g.Lock()
	token, err := g.e.LockSell(req.Kind, req.Qty, req.Offer, trader)
	g.Unlock()
	if err != nil {
		jsonErr(w, 422, err.Error())
		return
	}
	json200(w, map[string]string{"token": token})
}

func (s *Server) buy(w http.ResponseWriter, r *http.Request) {
	g, ok := s.marketNamed(w, r)
	if !ok {
		return
	}
	var req struct {
		Token string
		Payer txn.Purse
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, 400, "invalid request")
		return
	}
	g.Lock()
	delivery, err := g.e.Buy(req.Token, &req.Payer)
	g.Unlock()
	if err != nil {
		jsonErr(w, 422, err.Error())
		return
	}
	json200(w, delivery)
}

func (s *Server) sell(w http.ResponseWriter, r *http.Request) {
	g, ok := s.marketNamed(w, r)
	if !ok {
		return
	}
	var req struct {
		Token string
		Payer txn.Purse
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, 400, "invalid request")
		return
	}
	g.Lock()
	delivery, err := g.e.Sell(req.Token, &req.Payer)
	g.Unlock()
	if err != nil {
		jsonErr(w, 422, err.Error())
		return
	}
	json200(w, delivery)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	g, ok := s.marketNamed(w, r)
	if !ok {
		return
	}
	trader := traderFromContext(r.Context())
	g.Lock()
	hist := g.e.History(trader)
	g.Unlock()
	json200(w, hist)
}

// ── JSON helpers ─────────────────────────────────────

func json200(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
