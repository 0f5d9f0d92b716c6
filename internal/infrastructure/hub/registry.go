package hub

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"go-pickup-feed/internal/infrastructure/logger"
)

// State tracks a connection's position in its lifecycle. An entry leaves the
// registry only once it reaches StateClosed.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sender is the outbound half of a connection as the registry sees it.
// Send must return within the deadline of the supplied context.
type Sender interface {
	Send(ctx context.Context, env *Envelope) error
	Close() error
	IsClosed() bool
}

type entry struct {
	handle string
	userID int64
	filter *string
	state  State
	sender Sender
	seq    uint64
}

// Subscription is one row of a registry snapshot, safe to hold after the
// registry lock has been released.
type Subscription struct {
	Handle string
	UserID int64
	Filter *string

	sender Sender
}

// Registry is the single shared mutable resource of the fan-out subsystem:
// the live set of connections and their location filters. All mutation is
// serialized behind one mutex; broadcast and stats reads go through
// Snapshot so no lock is held across network I/O.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextSeq uint64

	logger logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		logger:  log.WithField("component", "registry"),
	}
}

// Register adds a new open connection and returns its handle. Handles are
// never reused.
func (r *Registry) Register(sender Sender, userID int64, filter *string) string {
	handle := uuid.NewString()

	// Copy the filter value so later mutation of the caller's string
	// cannot be observed through the registry.
	if filter != nil {
		v := *filter
		filter = &v
	}

	r.mu.Lock()
	r.nextSeq++
	r.entries[handle] = &entry{
		handle: handle,
		userID: userID,
		filter: filter,
		state:  StateOpen,
		sender: sender,
		seq:    r.nextSeq,
	}
	total := len(r.entries)
	r.mu.Unlock()

	r.logger.Infof("connection %s registered for user %d (total: %d)", handle, userID, total)
	return handle
}

// UpdateFilter atomically replaces the location filter of the given
// connection. A missing handle means the connection already closed, which is
// not an error.
func (r *Registry) UpdateFilter(handle string, filter *string) {
	if filter != nil {
		v := *filter
		filter = &v
	}

	r.mu.Lock()
	if e, ok := r.entries[handle]; ok {
		e.filter = filter
	}
	r.mu.Unlock()
}

// Unregister removes the connection and closes its sender. Calling it for an
// absent handle is a no-op, so every teardown path may call it safely.
func (r *Registry) Unregister(handle string) {
	r.mu.Lock()
	e, ok := r.entries[handle]
	if ok {
		e.state = StateClosing
		delete(r.entries, handle)
		e.state = StateClosed
	}
	total := len(r.entries)
	r.mu.Unlock()

	if ok {
		if err := e.sender.Close(); err != nil {
			r.logger.Errorf("failed to close connection %s: %v", handle, err)
		}
		r.logger.Infof("connection %s unregistered (total: %d)", handle, total)
	}
}

// Snapshot returns a point-in-time copy of the registry in registration
// order, safe to iterate without holding the registry lock.
func (r *Registry) Snapshot() []Subscription {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	subs := make([]Subscription, 0, len(entries))
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	for _, e := range entries {
		subs = append(subs, Subscription{
			Handle: e.handle,
			UserID: e.userID,
			Filter: e.filter,
			sender: e.sender,
		})
	}
	r.mu.Unlock()

	return subs
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// CloseAll removes every connection, closing each sender. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for handle, e := range entries {
		e.state = StateClosed
		if err := e.sender.Close(); err != nil {
			r.logger.Errorf("failed to close connection %s: %v", handle, err)
		}
	}
}
