// Package monitor streams live replay progress (bars, fills, the final
// report) to WebSocket clients. Purely observational: the replay loop
// never blocks on a slow client — messages to a saturated client are
// dropped.
package monitor

import (
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub manages WebSocket clients and fans replay envelopes out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	seq     int64
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// Broadcast sends a payload on a channel to every connected client.
// The envelope is hand-crafted JSON with a monotonic seq for client-side
// gap detection.
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.mu.Unlock()

	buf := buildEnvelope(channel, payload, time.Now().UTC(), seq)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- buf:
		default:
			// slow client, drop
		}
	}
}

// buildEnvelope hand-crafts the wire envelope. The payload is trusted
// JSON produced by our own encoders, so it is embedded verbatim.
func buildEnvelope(channel string, payload []byte, ts time.Time, seq int64) []byte {
	buf := make([]byte, 0, len(channel)+len(payload)+96)
	buf = append(buf, `{"channel":"`...)
	buf = append(buf, channel...)
	buf = append(buf, `","data":`...)
	buf = append(buf, payload...)
	buf = append(buf, `,"ts":"`...)
	buf = ts.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, '}')
	return buf
}

// ClientCount returns the number of attached clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades an HTTP request to a WebSocket client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[monitor] ws upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 256)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	log.Printf("[monitor] ws client connected (%d total)", h.ClientCount())

	go c.writePump()
	go c.readPump(h)
}

// Serve starts the monitor HTTP endpoint in a background goroutine.
func (h *Hub) Serve(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)
	srv := &http.Server{Addr: addr, Handler: mux, ReadTimeout: 5 * time.Second}
	go func() {
		log.Printf("[monitor] serving on %s/ws", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[monitor] server error: %v", err)
		}
	}()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		log.Println("[monitor] ws client disconnected")
	}()
	c.conn.SetReadLimit(4096)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
