package hub

import (
	"context"
	"encoding/json"

	"go-pickup-feed/internal/infrastructure/logger"
)

// Supervisor owns one connection end to end: register, greet, serve inbound
// control messages, and guarantee deregistration on every exit path.
type Supervisor struct {
	hub    *Hub
	logger logger.Logger
}

func NewSupervisor(h *Hub, log logger.Logger) *Supervisor {
	return &Supervisor{
		hub:    h,
		logger: log.WithField("component", "supervisor"),
	}
}

// Serve blocks until the connection ends. Malformed inbound traffic never
// terminates the session; only a transport-level receive or reply failure
// does. Cleanup runs exactly once no matter how the loop exits.
func (s *Supervisor) Serve(ctx context.Context, t Transport, userID int64, filter *string) {
	handle := s.hub.registry.Register(t, userID, filter)
	log := s.logger.WithFields(logger.Fields{
		"connection_id": handle,
		"user_id":       userID,
	})

	defer func() {
		s.hub.registry.Unregister(handle)
		t.Close()
		log.Info("connection closed")
	}()

	greeting := &Envelope{
		Type: TypeConnectionEstablished,
		Data: map[string]any{
			"user_id":           userID,
			"location_filter":   filter,
			"total_connections": s.hub.ConnectionCount(),
		},
	}
	if err := s.reply(ctx, t, greeting); err != nil {
		log.Errorf("failed to send connection greeting: %v", err)
		return
	}

	for {
		data, err := t.Receive()
		if err != nil {
			log.Debugf("receive loop ended: %v", err)
			return
		}

		if err := s.handleControl(ctx, t, handle, data, log); err != nil {
			log.Errorf("failed to reply on control message: %v", err)
			return
		}
	}
}

// handleControl processes one inbound client message. Unparseable or
// unrecognized payloads are discarded; a non-nil error means the reply could
// not be delivered and the session must end.
func (s *Supervisor) handleControl(ctx context.Context, t Transport, handle string, data []byte, log logger.Logger) error {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debugf("discarding malformed control message: %v", err)
		return nil
	}

	switch msg.Type {
	case TypePing:
		return s.reply(ctx, t, &Envelope{
			Type: TypePong,
			Data: map[string]any{},
		})

	case TypeLocationChange:
		s.hub.registry.UpdateFilter(handle, msg.LocationFilter)
		log.Infof("location filter changed to %v", deref(msg.LocationFilter))
		return s.reply(ctx, t, &Envelope{
			Type: TypeLocationChanged,
			Data: map[string]any{"location_filter": msg.LocationFilter},
		})

	default:
		log.Debugf("discarding unrecognized control message type %q", msg.Type)
		return nil
	}
}

// reply sends to this one connection with the hub's delivery bound. The
// bound is detached from the serve context so a cancellation racing an
// in-flight reply cannot be mistaken for a transport failure.
func (s *Supervisor) reply(ctx context.Context, t Transport, env *Envelope) error {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.hub.sendTimeout)
	defer cancel()
	return t.Send(sctx, env)
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
