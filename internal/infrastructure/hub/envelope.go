package hub

import "encoding/json"

// Event types carried in the envelope. The feed layer produces the mutation
// events; the remaining types are generated inside the hub itself.
const (
	TypeConnectionEstablished = "connection_established"
	TypePing                  = "ping"
	TypePong                  = "pong"
	TypeLocationChange        = "location_change"
	TypeLocationChanged       = "location_changed"
	TypePostCreated           = "post_created"
	TypePostDeleted           = "post_deleted"
	TypePostLikeToggled       = "post_like_toggled"
	TypeCommentCreated        = "comment_created"
	TypeCommentDeleted        = "comment_deleted"
	TypeCommentLikeToggled    = "comment_like_toggled"
)

// ScopeAll on an event forces delivery to every connection regardless of its
// location filter.
const ScopeAll = "all"

// Envelope is the wire message exchanged with clients. UserID and
// LocationFilter are pointers without omitempty so that absent values are
// serialized as explicit nulls, which is what clients expect.
type Envelope struct {
	Type           string  `json:"type"`
	Data           any     `json:"data"`
	UserID         *int64  `json:"user_id"`
	LocationFilter *string `json:"location_filter"`
}

// NewEvent builds an envelope scoped to the given location. A nil scope means
// the event is global and reaches every connection.
func NewEvent(eventType string, data any, userID *int64, scope *string) *Envelope {
	return &Envelope{
		Type:           eventType,
		Data:           data,
		UserID:         userID,
		LocationFilter: scope,
	}
}

// Encode serializes the envelope for the wire.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses a wire message back into an envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// controlMessage is the client-initiated subset of the protocol: ping and
// location_change. Anything else inbound is discarded.
type controlMessage struct {
	Type           string  `json:"type"`
	LocationFilter *string `json:"location_filter"`
}
