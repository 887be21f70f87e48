// Package feed broadcasts journaled market events to websocket subscribers.
package feed

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"nft_market/internal/domain"
	"nft_market/internal/event"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 256
	replayLimit  = 1000
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
)

// History serves journaled events for replay (see storage.Storage).
type History interface {
	Events(ctx context.Context, afterSeq uint64, limit int) ([]domain.JournalEntry, error)
}

// ConnGauge tracks subscriber count (see infra.Metrics).
type ConnGauge interface {
	IncrementConnections()
	DecrementConnections()
}

type message struct {
	seq  uint64
	data []byte
}

type client struct {
	conn      *websocket.Conn
	send      chan message
	afterSeq  uint64
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub fans committed events out to connected clients. A client that cannot
// keep up is disconnected rather than allowed to stall the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool

	history  History
	gauge    ConnGauge
	upgrader websocket.Upgrader
	wg       sync.WaitGroup
}

// NewHub creates a hub. history and gauge may be nil.
func NewHub(history History, gauge ConnGauge) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		history: history,
		gauge:   gauge,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and subscribes the connection.
// The optional "after" query parameter replays journaled events with a
// greater sequence number before live events.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid after parameter", http.StatusBadRequest)
			return
		}
		after = n
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Feed upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{conn: conn, send: make(chan message, sendBuffer), afterSeq: after}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	// Registered before Close can observe the client
	h.wg.Add(2)
	if h.gauge != nil {
		h.gauge.IncrementConnections()
	}
	h.mu.Unlock()

	slog.Info("Feed client connected", slog.String("remote", r.RemoteAddr), slog.Uint64("after", after))

	go h.writePump(c, r.URL.Query().Has("after"))
	go h.readPump(c)
}

// Publish encodes ev once and queues it for every client.
func (h *Hub) Publish(ev event.Event) {
	data, err := event.Encode(ev)
	if err != nil {
		slog.Error("Feed encode failed", slog.Uint64("seq", ev.GetSeq()), slog.Any("error", err))
		return
	}
	msg := message{seq: ev.GetSeq(), data: data}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("Feed client too slow, disconnecting", slog.String("remote", c.conn.RemoteAddr().String()))
		h.remove(c)
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
	h.wg.Wait()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.close()
	if h.gauge != nil {
		h.gauge.DecrementConnections()
	}
}

func (h *Hub) replay(c *client) (uint64, error) {
	last := c.afterSeq
	if h.history == nil {
		return last, nil
	}
	for {
		entries, err := h.history.Events(context.Background(), last, replayLimit)
		if err != nil {
			return last, err
		}
		for _, e := range entries {
			if err := h.write(c, []byte(e.Payload)); err != nil {
				return last, err
			}
			last = e.Seq
		}
		if len(entries) < replayLimit {
			return last, nil
		}
	}
}

func (h *Hub) write(c *client, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) writePump(c *client, wantReplay bool) {
	defer h.wg.Done()
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	var replayed uint64
	if wantReplay {
		var err error
		if replayed, err = h.replay(c); err != nil {
			slog.Warn("Feed replay failed", slog.Any("error", err))
			h.remove(c)
			return
		}
	}

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			// Already delivered by replay
			if msg.seq <= replayed {
				continue
			}
			if err := h.write(c, msg.data); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readPump discards client frames and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer h.wg.Done()
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
