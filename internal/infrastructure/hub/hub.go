package hub

import (
	"context"
	"time"

	"go-pickup-feed/internal/infrastructure/logger"
)

// Config carries the hub's tunables. Zero values fall back to defaults.
type Config struct {
	// SendTimeout bounds one delivery attempt to one connection. A
	// connection that cannot accept a message within the bound is treated
	// as failed and removed.
	SendTimeout time.Duration

	// Locations is the set of known pickup locations used for stats
	// bucketing.
	Locations []string
}

const defaultSendTimeout = 5 * time.Second

// Hub routes feed events to the matching subset of registered connections.
// Delivery is transient and best-effort: events are never queued, persisted
// or replayed.
type Hub struct {
	registry    *Registry
	logger      logger.Logger
	sendTimeout time.Duration
	locations   []string
}

func New(log logger.Logger, cfg Config) *Hub {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	return &Hub{
		registry:    NewRegistry(log),
		logger:      log.WithField("component", "hub"),
		sendTimeout: cfg.SendTimeout,
		locations:   cfg.Locations,
	}
}

// Broadcast delivers the event to every connection whose filter matches its
// scope and returns the number of successful deliveries. Each attempt is
// independent: a failing connection never affects the others, it is collected
// and unregistered after the delivery pass completes.
func (h *Hub) Broadcast(ctx context.Context, env *Envelope) int {
	snapshot := h.registry.Snapshot()

	delivered := 0
	var failed []string
	for _, sub := range snapshot {
		if !shouldDeliver(sub.Filter, env.LocationFilter) {
			continue
		}

		// The send bound is the hub's own timeout, detached from the
		// caller's lifetime: the emitting request being aborted says
		// nothing about the health of the target connections.
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.sendTimeout)
		err := sub.sender.Send(sctx, env)
		cancel()

		if err != nil {
			h.logger.Errorf("failed to deliver %s to connection %s: %v", env.Type, sub.Handle, err)
			failed = append(failed, sub.Handle)
			continue
		}
		delivered++
	}

	for _, handle := range failed {
		h.registry.Unregister(handle)
	}

	h.logger.Debugf("broadcast %s delivered to %d/%d connections", env.Type, delivered, len(snapshot))
	return delivered
}

// Emit is the entry point for mutation handlers. The count is deliberately
// dropped: callers have already committed their state change and delivery is
// best-effort.
func (h *Hub) Emit(ctx context.Context, env *Envelope) {
	h.Broadcast(ctx, env)
}

// Attach registers an externally managed, send-only connection (SSE). The
// caller is responsible for detaching it when its stream ends.
func (h *Hub) Attach(sender Sender, userID int64, filter *string) string {
	return h.registry.Register(sender, userID, filter)
}

// Detach removes a connection registered through Attach. Idempotent.
func (h *Hub) Detach(handle string) {
	h.registry.Unregister(handle)
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	return h.registry.Len()
}

// Stop closes every live connection. Events emitted afterwards are delivered
// to nobody, which is fine during shutdown.
func (h *Hub) Stop() {
	h.registry.CloseAll()
	h.logger.Info("hub stopped, all connections closed")
}
