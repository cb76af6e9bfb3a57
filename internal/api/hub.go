package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/magcho/vtrpon/internal/conversion"
	"github.com/magcho/vtrpon/internal/logging"
	"github.com/magcho/vtrpon/internal/playlist"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

var errHubClosed = errors.New("websocket hub closed")

// Hub fans playlist snapshots and alerts out to websocket subscribers. It
// satisfies conversion.Refresher and conversion.Alerter.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*subscriber]struct{}
	closed  bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logging.NewComponentLogger(logger, "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The playlist UI is served from other local origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*subscriber]struct{}),
	}
}

// Refresh broadcasts a playlist snapshot.
func (h *Hub) Refresh(_ context.Context, entries []playlist.Entry) {
	h.broadcast(Event{Type: EventPlaylist, Entries: FromEntries(entries)})
}

// Alert broadcasts a transient alert.
func (h *Hub) Alert(_ context.Context, alert conversion.Alert) {
	view := FromAlert(alert)
	h.broadcast(Event{Type: EventAlert, Alert: &view})
}

// Subscribers reports how many clients are connected.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades the request, sends the playlist returned by snapshot and
// keeps the connection registered until the client goes away. Broadcasts wait
// while snapshot runs, so the client sees every refresh published after it.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, snapshot func() ([]playlist.Entry, error)) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	if err := h.subscribe(sub, snapshot); err != nil {
		_ = conn.Close()
		return err
	}
	h.logger.Debug("websocket client connected", logging.String("remote", r.RemoteAddr))

	go h.writeLoop(sub)
	h.readLoop(sub)
	h.unregister(sub)
	h.logger.Debug("websocket client disconnected", logging.String("remote", r.RemoteAddr))
	return nil
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.clients {
		delete(h.clients, sub)
		sub.close()
	}
}

func (h *Hub) subscribe(sub *subscriber, snapshot func() ([]playlist.Entry, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errHubClosed
	}
	entries, err := snapshot()
	if err != nil {
		return fmt.Errorf("playlist snapshot: %w", err)
	}
	payload, err := encodeEvent(Event{Type: EventPlaylist, Entries: FromEntries(entries)})
	if err != nil {
		return err
	}
	sub.send <- payload
	h.clients[sub] = struct{}{}
	return nil
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[sub]; ok {
		delete(h.clients, sub)
		sub.close()
	}
}

func (h *Hub) broadcast(event Event) {
	payload, err := encodeEvent(event)
	if err != nil {
		h.logger.Warn("websocket event encode failed", logging.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.clients {
		select {
		case sub.send <- payload:
		default:
			// Slow consumer; it reconnects and receives a fresh snapshot.
			logging.WarnWithContext(h.logger, "websocket client dropped", "websocket_backpressure",
				logging.String(logging.FieldImpact, "client must reconnect to resume updates"),
			)
			delete(h.clients, sub)
			sub.close()
		}
	}
}

func (h *Hub) readLoop(sub *subscriber) {
	sub.conn.SetReadLimit(4096)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encodeEvent(event Event) ([]byte, error) {
	event.SentAt = formatTime(time.Now())
	return json.Marshal(event)
}
