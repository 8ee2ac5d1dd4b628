package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"RegimeNews/internal/domain/models"
	applogger "RegimeNews/pkg/logger"
	"RegimeNews/pkg/util"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the frame sent to stream clients.
type Message struct {
	Type    string         `json:"type"`
	Payload *models.Report `json:"payload"`
}

type client struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	ticker string
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// StreamHandler pushes every delivered report to connected clients. A client
// may subscribe to one ticker with ?ticker=.
type StreamHandler struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*client
	l       *applogger.Logger
}

func NewStreamHandler(l *applogger.Logger) *StreamHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &StreamHandler{clients: make(map[*websocket.Conn]*client), l: l.Component("ws")}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/stream", h.Stream)
}

func (h *StreamHandler) Stream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("websocket upgrade failed", applogger.Error(err))
		return nil
	}

	cl := &client{conn: conn, ticker: util.NormalizeSymbol(c.QueryParam("ticker"))}
	h.mu.Lock()
	h.clients[conn] = cl
	total := len(h.clients)
	h.mu.Unlock()
	h.l.Debug("client connected", applogger.Int("clients", total), applogger.String("ticker", cl.ticker))

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()
		_ = conn.Close()
		h.l.Debug("client disconnected", applogger.Int("clients", remaining))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.l.Warn("websocket read error", applogger.Error(err))
			}
			return nil
		}
	}
}

// Broadcast sends r to every client subscribed to its ticker or to all.
func (h *StreamHandler) Broadcast(r *models.Report) {
	data, err := json.Marshal(Message{Type: "report", Payload: r})
	if err != nil {
		h.l.Error("marshal report frame failed", applogger.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		if cl.ticker == "" || cl.ticker == r.Ticker {
			targets = append(targets, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range targets {
		if err := cl.write(data); err != nil {
			h.l.Warn("websocket send failed", applogger.Error(err))
		}
	}
}

// Clients returns the number of open connections.
func (h *StreamHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *StreamHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, cl := range h.clients {
		cl.mu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), time.Now().Add(writeWait))
		cl.mu.Unlock()
		_ = conn.Close()
	}
}
