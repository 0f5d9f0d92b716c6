package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"go-pickup-feed/internal/infrastructure/logger"
)

// Transport is the full-duplex view of a connection used by the lifecycle
// supervisor: the registry's Sender plus the inbound side.
type Transport interface {
	Sender
	Receive() ([]byte, error)
	Context() context.Context
}

// WebSocketConn adapts a gorilla/websocket connection to the hub. Writes go
// through a buffered channel drained by a single write pump, so Send is a
// bounded enqueue that never blocks a broadcaster on network I/O.
type WebSocketConn struct {
	conn *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc

	closed   bool
	closedMu sync.RWMutex

	logger logger.Logger

	send chan *Envelope

	writeTimeout time.Duration
	pongTimeout  time.Duration
}

var _ Transport = (*WebSocketConn)(nil)

// NewWebSocketConn wraps an upgraded websocket connection and starts its
// write pump. sendBuffer bounds how many outbound envelopes may be pending
// before the connection counts as a slow consumer.
func NewWebSocketConn(conn *websocket.Conn, log logger.Logger, sendBuffer int) *WebSocketConn {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := &WebSocketConn{
		conn:         conn,
		ctx:          ctx,
		cancel:       cancel,
		logger:       log.WithField("transport", "websocket"),
		send:         make(chan *Envelope, sendBuffer),
		writeTimeout: 10 * time.Second,
		pongTimeout:  60 * time.Second,
	}

	c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	})

	go c.writePump()

	return c
}

// Send enqueues an envelope for the write pump. It fails once the context
// deadline expires with the buffer still full, classifying the connection as
// a slow consumer.
func (c *WebSocketConn) Send(ctx context.Context, env *Envelope) error {
	if c.IsClosed() {
		return fmt.Errorf("websocket connection is closed")
	}

	select {
	case c.send <- env:
		return nil
	case <-c.ctx.Done():
		return fmt.Errorf("websocket connection is closed")
	case <-ctx.Done():
		return fmt.Errorf("send %s: %w", env.Type, ctx.Err())
	}
}

// Receive blocks until the next inbound text message or a transport error.
// Closing the connection unblocks it.
func (c *WebSocketConn) Receive() ([]byte, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType != websocket.TextMessage {
			c.logger.Debugf("ignoring non-text message of type %d", messageType)
			continue
		}
		return data, nil
	}
}

// Close tears down the connection. Safe to call more than once.
func (c *WebSocketConn) Close() error {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.cancel()

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	return c.conn.Close()
}

// IsClosed reports whether Close has been called.
func (c *WebSocketConn) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

// Context is cancelled when the connection closes.
func (c *WebSocketConn) Context() context.Context {
	return c.ctx
}

// writePump serializes all writes to the underlying connection and keeps the
// peer alive with periodic pings. Ping interval stays under the pong timeout.
func (c *WebSocketConn) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Errorf("failed to write %s: %v", env.Type, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Errorf("failed to send ping: %v", err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
