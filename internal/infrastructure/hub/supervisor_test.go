package hub

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeTransport scripts the inbound side of a connection and records the
// outbound side.
type fakeTransport struct {
	mockSender

	inbound   chan []byte
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	ctx, cancel := context.WithCancel(context.Background())
	return &fakeTransport{
		inbound: make(chan []byte, 16),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (f *fakeTransport) Receive() ([]byte, error) {
	data, ok := <-f.inbound
	if !ok {
		return nil, io.EOF
	}
	return data, nil
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() {
		f.cancel()
		close(f.inbound)
	})
	return f.mockSender.Close()
}

func (f *fakeTransport) Context() context.Context { return f.ctx }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func serve(h *Hub, t *fakeTransport, userID int64, filter *string) chan struct{} {
	done := make(chan struct{})
	go func() {
		NewSupervisor(h, &mockLogger{}).Serve(context.Background(), t, userID, filter)
		close(done)
	}()
	return done
}

func TestSupervisorGreetsBeforeAnyBroadcast(t *testing.T) {
	h := New(&mockLogger{}, Config{})

	transport := newFakeTransport()
	done := serve(h, transport, 42, strPtr("Mars"))

	waitFor(t, "greeting", func() bool { return transport.count() >= 1 })

	sent := transport.envelopes()
	if sent[0].Type != TypeConnectionEstablished {
		t.Fatalf("first message is %q, want %q", sent[0].Type, TypeConnectionEstablished)
	}
	data, ok := sent[0].Data.(map[string]any)
	if !ok {
		t.Fatalf("greeting data has unexpected shape %T", sent[0].Data)
	}
	if data["user_id"] != int64(42) {
		t.Errorf("greeting user_id = %v, want 42", data["user_id"])
	}
	if data["total_connections"] != 1 {
		t.Errorf("greeting total_connections = %v, want 1", data["total_connections"])
	}

	transport.Close()
	<-done
}

func TestSupervisorPingPong(t *testing.T) {
	h := New(&mockLogger{}, Config{})

	transport := newFakeTransport()
	done := serve(h, transport, 1, nil)
	waitFor(t, "greeting", func() bool { return transport.count() >= 1 })

	transport.inbound <- []byte(`{"type":"ping"}`)
	waitFor(t, "pong", func() bool { return transport.count() >= 2 })

	if got := transport.envelopes()[1].Type; got != TypePong {
		t.Errorf("reply type = %q, want %q", got, TypePong)
	}

	transport.Close()
	<-done
}

func TestSupervisorLocationChange(t *testing.T) {
	h := New(&mockLogger{}, Config{})

	transport := newFakeTransport()
	done := serve(h, transport, 1, strPtr("Kappa Sigma"))
	waitFor(t, "greeting", func() bool { return transport.count() >= 1 })

	transport.inbound <- []byte(`{"type":"location_change","location_filter":"EVGR"}`)
	waitFor(t, "location_changed echo", func() bool { return transport.count() >= 2 })

	echo := transport.envelopes()[1]
	if echo.Type != TypeLocationChanged {
		t.Fatalf("reply type = %q, want %q", echo.Type, TypeLocationChanged)
	}

	// The new filter is already in effect for subsequent broadcasts.
	h.Broadcast(context.Background(), NewEvent(TypePostCreated, nil, nil, strPtr("EVGR")))
	waitFor(t, "EVGR delivery", func() bool { return transport.count() >= 3 })

	h.Broadcast(context.Background(), NewEvent(TypePostCreated, nil, nil, strPtr("Kappa Sigma")))
	if transport.count() != 3 {
		t.Error("connection still receives events for its old location")
	}

	transport.Close()
	<-done
}

func TestSupervisorDiscardsMalformedInput(t *testing.T) {
	h := New(&mockLogger{}, Config{})

	transport := newFakeTransport()
	done := serve(h, transport, 1, nil)
	waitFor(t, "greeting", func() bool { return transport.count() >= 1 })

	transport.inbound <- []byte(`not json at all`)
	transport.inbound <- []byte(`{"type":"no_such_control"}`)
	transport.inbound <- []byte(`{"type":"ping"}`)

	// The session survives the garbage and still answers the ping.
	waitFor(t, "pong after malformed input", func() bool { return transport.count() >= 2 })
	if got := transport.envelopes()[1].Type; got != TypePong {
		t.Errorf("reply type = %q, want %q", got, TypePong)
	}
	if h.ConnectionCount() != 1 {
		t.Error("malformed input must not terminate the session")
	}

	transport.Close()
	<-done
}

func TestSupervisorRepliesDespiteCancelledServeContext(t *testing.T) {
	h := New(&mockLogger{}, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := newFakeTransport()
	done := make(chan struct{})
	go func() {
		NewSupervisor(h, &mockLogger{}).Serve(ctx, transport, 1, nil)
		close(done)
	}()
	waitFor(t, "greeting", func() bool { return transport.count() >= 1 })

	transport.inbound <- []byte(`{"type":"ping"}`)
	waitFor(t, "pong", func() bool { return transport.count() >= 2 })

	if got := transport.envelopes()[1].Type; got != TypePong {
		t.Errorf("reply type = %q, want %q", got, TypePong)
	}
	if h.ConnectionCount() != 1 {
		t.Error("session should survive an unrelated context cancellation")
	}

	transport.Close()
	<-done
}

func TestSupervisorCleansUpOnDisconnect(t *testing.T) {
	h := New(&mockLogger{}, Config{})

	transport := newFakeTransport()
	done := serve(h, transport, 1, nil)
	waitFor(t, "registration", func() bool { return h.ConnectionCount() == 1 })

	transport.Close()
	<-done

	if h.ConnectionCount() != 0 {
		t.Errorf("connection not deregistered, %d remain", h.ConnectionCount())
	}
	if !transport.IsClosed() {
		t.Error("transport should be closed after teardown")
	}
}
