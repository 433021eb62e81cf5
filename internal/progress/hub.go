// Package progress delivers job progress to websocket subscribers and logs.
package progress

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/joseph-ayodele/fleet-telemetry/internal/metrics"
)

const writeTimeout = 5 * time.Second

// Envelope is the message pushed to every subscriber.
type Envelope struct {
	Progress  int    `json:"progress"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"` // unix milliseconds
}

type subscriber struct {
	id   string
	mu   sync.Mutex // serializes writes to conn
	conn *websocket.Conn
}

// Hub is the registry of connected progress subscribers. Connections are
// added on upgrade and removed on read error, close, or a failed write.
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]*subscriber
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewHub(m *metrics.Metrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs: make(map[string]*subscriber),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		metrics: m,
		logger:  logger,
	}
}

// ServeHTTP upgrades the request and keeps the subscriber registered until
// the client goes away. Inbound messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("progress.ws.upgrade_failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	sub := &subscriber{id: uuid.NewString(), conn: conn}
	h.add(sub)
	h.logger.Info("progress.ws.connected", "id", sub.id, "remote", r.RemoteAddr)

	conn.SetReadLimit(4 << 10)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(sub.id)
	h.logger.Info("progress.ws.disconnected", "id", sub.id)
}

// Notify broadcasts one progress update. Delivery is best effort: a
// subscriber whose write fails is dropped and the others still receive it.
func (h *Hub) Notify(percent int, message string) error {
	payload, err := json.Marshal(Envelope{
		Progress:  percent,
		Message:   message,
		Timestamp: strconv.FormatInt(time.Now().UnixMilli(), 10),
	})
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if err := s.write(payload); err != nil {
			h.logger.Warn("progress.ws.write_failed", "id", s.id, "error", err)
			h.remove(s.id)
		}
	}
	return nil
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*subscriber)
	h.mu.Unlock()
	for _, s := range subs {
		_ = s.conn.Close()
	}
	h.metrics.SetSubscribers(0)
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	h.subs[s.id] = s
	n := len(h.subs)
	h.mu.Unlock()
	h.metrics.SetSubscribers(n)
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	s, ok := h.subs[id]
	delete(h.subs, id)
	n := len(h.subs)
	h.mu.Unlock()
	if ok {
		_ = s.conn.Close()
	}
	h.metrics.SetSubscribers(n)
}

func (s *subscriber) write(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}
