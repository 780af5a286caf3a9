package console

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"fxmarket/internal/market"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Msg is one event forwarded to a websocket client.
type Msg struct {
	Market string `json:"market"`
	Kind   string `json:"kind"`
	Good   string `json:"good"`
	Qty    float32 `json:"qty"`
	Price  float32 `json:"price"`
	Token  string `json:"token"`
}

// hub fans out market.Event publications to every websocket client
// subscribed to that market's room, the same room-per-key pattern the
// teacher's ws.Hub uses for its per-market order book feed.
type hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*conn]bool
	allConn map[*conn]bool
}

type conn struct {
	ws     *websocket.Conn
	send   chan []byte
	hub    *hub
	market string
}

func newHub() *hub {
	return &hub{
		rooms:   make(map[string]map[*conn]bool),
		allConn: make(map[*conn]bool),
	}
}

// marketSubscriber adapts a named market's event stream into hub
// broadcasts; it is registered via MarketEngine.Subscribe.
type marketSubscriber struct {
	h    *hub
	name string
}

func (s marketSubscriber) OnEvent(ev market.Event) {
	s.h.publish(s.name, ev)
}

func (h *hub) publish(marketName string, ev market.Event) {
	msg := Msg{
		Market: marketName,
		Kind:   ev.Kind.String(),
		Good:   ev.Good.String(),
		Qty:    ev.Qty,
		Price:  ev.Price,
		Token:  ev.Token,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	room := h.rooms[marketName]
	h.mu.RUnlock()
	for c := range room {
		select {
		case c.send <- b:
		default:
		}
	}
}

func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &conn{ws: wsConn, send: make(chan []byte, 64), hub: h}
	h.mu.Lock()
	h.allConn[c] = true
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

func (c *conn) readPump() {
	defer func() {
		c.hub.removeConn(c)
		c.ws.Close()
	}()
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			break
		}
		var sub struct {
			Action string `json:"action"`
			Market string `json:"market"`
		}
		if err := json.Unmarshal(msg, &sub); err != nil {
			continue
		}
		switch sub.Action {
		case "subscribe":
			c.hub.subscribe(c, sub.Market)
		case "unsubscribe":
			c.hub.unsubscribe(c, sub.Market)
		}
	}
}

func (c *conn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

func (h *hub) subscribe(c *conn, marketName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.market != "" {
		if room, ok := h.rooms[c.market]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.market)
			}
		}
	}
	c.market = marketName
	room, ok := h.rooms[marketName]
	if !ok {
		room = make(map[*conn]bool)
		h.rooms[marketName] = room
	}
	room[c] = true
}

func (h *hub) unsubscribe(c *conn, marketName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[marketName]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, marketName)
		}
	}
	if c.market == marketName {
		c.market = ""
	}
}

func (h *hub) removeConn(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.allConn, c)
	if c.market != "" {
		if room, ok := h.rooms[c.market]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.market)
			}
		}
	}
	close(c.send)
}
