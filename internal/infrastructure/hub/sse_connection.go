package hub

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-contrib/sse"

	"go-pickup-feed/internal/infrastructure/logger"
)

// SSEConn is a send-only connection over Server-Sent Events, for clients
// that only want to watch the feed. It has no inbound side, so its filter is
// fixed at subscription time.
type SSEConn struct {
	writer http.ResponseWriter

	ctx    context.Context
	cancel context.CancelFunc

	closed   bool
	closedMu sync.RWMutex

	writeMu sync.Mutex

	logger logger.Logger
}

var _ Sender = (*SSEConn)(nil)

func NewSSEConn(parent context.Context, w http.ResponseWriter, log logger.Logger) *SSEConn {
	ctx, cancel := context.WithCancel(parent)

	c := &SSEConn{
		writer: w,
		ctx:    ctx,
		cancel: cancel,
		logger: log.WithField("transport", "sse"),
	}
	c.setupHeaders()
	return c
}

// Send writes one envelope as an SSE event. The write itself runs in a
// helper goroutine so a stalled client cannot hold the broadcaster past the
// context deadline.
func (c *SSEConn) Send(ctx context.Context, env *Envelope) error {
	if c.IsClosed() {
		return fmt.Errorf("sse connection is closed")
	}

	done := make(chan error, 1)
	go func() {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()

		err := sse.Encode(c.writer, sse.Event{
			Event: env.Type,
			Data:  env,
		})
		if err == nil {
			if flusher, ok := c.writer.(http.Flusher); ok {
				flusher.Flush()
			}
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			c.Close()
			return fmt.Errorf("sse write: %w", err)
		}
		return nil
	case <-c.ctx.Done():
		return fmt.Errorf("sse connection is closed")
	case <-ctx.Done():
		c.Close()
		return fmt.Errorf("send %s: %w", env.Type, ctx.Err())
	}
}

// Close marks the stream finished and unblocks its handler. Safe to call
// more than once.
func (c *SSEConn) Close() error {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.cancel()
	return nil
}

func (c *SSEConn) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

// Context is cancelled when the stream ends.
func (c *SSEConn) Context() context.Context {
	return c.ctx
}

func (c *SSEConn) setupHeaders() {
	h := c.writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}
