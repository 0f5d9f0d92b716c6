package outbound

import (
	"context"

	"go-pickup-feed/internal/infrastructure/hub"
)

// EventEmitter propagates a committed mutation to connected clients.
// Delivery is best-effort and never participates in the mutation itself.
type EventEmitter interface {
	Emit(ctx context.Context, env *hub.Envelope)
}
