package present

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"voxassist/internal/assistant"
)

const (
	HubSource    = "voxassist"
	KindOutput   = "output"
	writeTimeout = 5 * time.Second
)

// Event is the frame pushed to the hub for every handled request.
type Event struct {
	From    string           `json:"from"`
	Kind    string           `json:"kind"`
	Content string           `json:"content"`
	Output  assistant.Output `json:"output"`
}

// Hub publishes outputs to a websocket hub. The connection is dialed lazily
// and redialed once when a write fails.
type Hub struct {
	url    string
	dialer *ws.Dialer

	mu   sync.Mutex
	conn *ws.Conn
}

func NewHub(url string) *Hub {
	return &Hub{
		url:    url,
		dialer: &ws.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

func (h *Hub) Publish(ctx context.Context, out assistant.Output) error {
	payload, err := json.Marshal(Event{
		From:    HubSource,
		Kind:    KindOutput,
		Content: out.Response,
		Output:  out,
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn != nil {
		err := h.write(payload)
		if err == nil {
			return nil
		}
		log.Warn("Hub write failed, reconnecting", "url", h.url, "err", err)
		h.drop()
	}

	if err := h.dial(ctx); err != nil {
		return err
	}
	if err := h.write(payload); err != nil {
		h.drop()
		return fmt.Errorf("hub write: %w", err)
	}
	return nil
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return nil
	}
	_ = h.conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	h.drop()
	return nil
}

func (h *Hub) dial(ctx context.Context) error {
	conn, _, err := h.dialer.DialContext(ctx, h.url, nil)
	if err != nil {
		return fmt.Errorf("dial hub %s: %w", h.url, err)
	}
	log.Debug("Connected to hub", "url", h.url)
	h.conn = conn
	return nil
}

func (h *Hub) write(payload []byte) error {
	_ = h.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return h.conn.WriteMessage(ws.TextMessage, payload)
}

func (h *Hub) drop() {
	h.conn.Close()
	h.conn = nil
}
