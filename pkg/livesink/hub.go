// Package livesink broadcasts render sink calls to browser clients over
// websockets and feeds their control messages back to the coordinator.
package livesink

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sudorandom/propmap/pkg/symbols"
)

const (
	sendBuffer   = 64
	controlQueue = 64
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	maxMessage   = 4096
	stateRetries = 3
)

// Controller is the part of the coordinator the hub drives.
type Controller interface {
	Handle(ev symbols.ControlEvent) error
	Position() (index, n int)
}

// State is the snapshot a late joiner needs to draw the current frame.
type State struct {
	Index   int             `json:"index"`
	Periods int             `json:"periods"`
	Year    string          `json:"year"`
	Stats   *symbols.Stats  `json:"stats,omitempty"`
	Symbols []symbols.Event `json:"symbols"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is a RenderSink that fans render passes out to connected clients.
//
// Every websocket message is a JSON array of events. Sink calls are queued
// until SetLegend, which closes every pass, and then sent as one frame, so
// clients only ever see whole passes. The snapshot follows the same rule.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	symbols map[string]*symbols.Event
	order   []string
	legend  *symbols.Event
	pending []symbols.Event
	passes  uint64

	ctrl     Controller
	controls chan symbols.ControlEvent
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*client]struct{}),
		symbols:  make(map[string]*symbols.Event),
		controls: make(chan symbols.ControlEvent, controlQueue),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Attach sets the controller that Run feeds control messages to.
func (h *Hub) Attach(ctrl Controller) { h.ctrl = ctrl }

func (h *Hub) CreateSymbol(id string, at symbols.LngLat, radius float64, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, symbols.Event{Kind: symbols.EventCreate, ID: id, At: &at, Radius: radius, Content: content})
}

func (h *Hub) UpdateSymbol(id string, radius float64, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, symbols.Event{Kind: symbols.EventUpdate, ID: id, Radius: radius, Content: content})
}

func (h *Hub) SetLegend(stats symbols.Stats, yearLabel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, symbols.Event{Kind: symbols.EventLegend, Stats: &stats, Year: yearLabel})
	h.flushLocked()
}

// flushLocked applies the pending pass to the snapshot and broadcasts it.
func (h *Hub) flushLocked() {
	frame := make([]symbols.Event, 0, len(h.pending))
	for _, ev := range h.pending {
		if h.applyLocked(ev) {
			frame = append(frame, ev)
		}
	}
	h.pending = nil
	h.passes++
	h.broadcastLocked(frame)
}

func (h *Hub) applyLocked(ev symbols.Event) bool {
	switch ev.Kind {
	case symbols.EventCreate:
		if _, ok := h.symbols[ev.ID]; !ok {
			h.order = append(h.order, ev.ID)
		}
		stored := ev
		h.symbols[ev.ID] = &stored
	case symbols.EventUpdate:
		s, ok := h.symbols[ev.ID]
		if !ok {
			log.Printf("[livesink] Update for unknown symbol %q", ev.ID)
			return false
		}
		s.Radius, s.Content = ev.Radius, ev.Content
	case symbols.EventLegend:
		stored := ev
		h.legend = &stored
	}
	return true
}

// broadcastLocked queues one frame for every client. A client with a full
// queue is dropped.
func (h *Hub) broadcastLocked(frame []symbols.Event) {
	if len(h.clients) == 0 {
		return
	}
	msg, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[livesink] Error encoding frame: %v", err)
		return
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("[livesink] Dropping slow client %s", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// snapshotLocked is the event sequence that rebuilds the current frame.
func (h *Hub) snapshotLocked() []symbols.Event {
	out := make([]symbols.Event, 0, len(h.order)+1)
	for _, id := range h.order {
		out = append(out, *h.symbols[id])
	}
	if h.legend != nil {
		out = append(out, *h.legend)
	}
	return out
}

// State returns the current frame. The position is re-read if a pass
// completes while the snapshot is taken.
func (h *Hub) State() State {
	for attempt := 0; ; attempt++ {
		h.mu.Lock()
		before := h.passes
		h.mu.Unlock()

		var st State
		if h.ctrl != nil {
			st.Index, st.Periods = h.ctrl.Position()
		}

		h.mu.Lock()
		if h.passes != before && attempt < stateRetries {
			h.mu.Unlock()
			continue
		}
		st.Symbols = make([]symbols.Event, 0, len(h.order))
		for _, id := range h.order {
			st.Symbols = append(st.Symbols, *h.symbols[id])
		}
		if h.legend != nil {
			st.Year = h.legend.Year
			st.Stats = h.legend.Stats
		}
		h.mu.Unlock()
		return st
	}
}

// Clients is the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run applies queued control messages one at a time until ctx is done or
// the controller reports a fatal error.
func (h *Hub) Run(ctx context.Context) error {
	if h.ctrl == nil {
		return errors.New("livesink: no controller attached")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-h.controls:
			if err := h.ctrl.Handle(ev); err != nil {
				log.Printf("[livesink] Aborting: %v", err)
				return err
			}
		}
	}
}

// Submit queues a control event for Run. It reports false when the queue
// is full.
func (h *Hub) Submit(ev symbols.ControlEvent) bool {
	select {
	case h.controls <- ev:
		return true
	default:
		return false
	}
}

// ServeWS upgrades the request and streams render frames to the client.
// The current snapshot is always the first frame.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[livesink] Upgrade error: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if snap := h.snapshotLocked(); len(snap) > 0 {
		msg, err := json.Marshal(snap)
		if err != nil {
			h.mu.Unlock()
			log.Printf("[livesink] Error encoding snapshot: %v", err)
			_ = conn.Close()
			return
		}
		// The queue is new and empty, so this never blocks.
		c.send <- msg
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("[livesink] Client connected: %s", conn.RemoteAddr())

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(c)
		h.mu.Unlock()
		_ = c.conn.Close()
		log.Printf("[livesink] Client disconnected: %s", c.conn.RemoteAddr())
	}()
	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[livesink] Read error: %v", err)
			}
			return
		}
		var ev symbols.ControlEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Printf("[livesink] Ignoring malformed control message: %v", err)
			continue
		}
		if !h.Submit(ev) {
			log.Printf("[livesink] Control queue full, dropping %s", ev.Type)
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
