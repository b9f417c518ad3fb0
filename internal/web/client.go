package web

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quickscout/quickscout-go/internal/scout"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one connected page.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	remote string

	// sessionID is guarded by hub.mu.
	sessionID string

	sendMu sync.Mutex
	closed bool
}

// sendMessage queues msg without blocking. A client whose buffer is full
// drops the frame; the next render state supersedes it anyway.
func (c *Client) sendMessage(msg WSMessage) {
	data, err := encode(msg)
	if err != nil {
		c.hub.logger.Error("failed to encode message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("client send buffer full, dropping message",
			zap.String("type", msg.Type),
			zap.String("remote", c.remote),
		)
	}
}

func (c *Client) sendState(state scout.RenderState) {
	c.sendMessage(WSMessage{Type: TypeRenderState, SessionID: state.SessionID, Data: state})
}

func (c *Client) sendError(err error) {
	c.sendMessage(WSMessage{Type: TypeError, Data: ErrorData{Message: err.Error()}})
}

// closeSend closes the outbound channel once; the hub calls it when the
// client is unregistered.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read failed", zap.String("remote", c.remote), zap.Error(err))
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.logger.Debug("invalid message", zap.String("remote", c.remote), zap.Error(err))
			c.sendError(err)
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
