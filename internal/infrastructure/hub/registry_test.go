package hub

import "testing"

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry(&mockLogger{})

	a := &mockSender{}
	b := &mockSender{}
	handleA := r.Register(a, 1, nil)
	handleB := r.Register(b, 2, strPtr("Mars"))

	r.Unregister(handleA)
	r.Unregister(handleA) // second call must be a silent no-op

	if r.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", r.Len())
	}
	snap := r.Snapshot()
	if len(snap) != 1 || snap[0].Handle != handleB {
		t.Error("double unregister must not affect other handles")
	}
	if b.IsClosed() {
		t.Error("unrelated connection must stay open")
	}
}

func TestRegistryUnregisterClosesSender(t *testing.T) {
	r := NewRegistry(&mockLogger{})

	s := &mockSender{}
	handle := r.Register(s, 1, nil)
	r.Unregister(handle)

	if !s.IsClosed() {
		t.Error("unregister should close the sender")
	}
}

func TestRegistrySnapshotIsPointInTime(t *testing.T) {
	r := NewRegistry(&mockLogger{})

	r.Register(&mockSender{}, 1, nil)
	snap := r.Snapshot()

	r.Register(&mockSender{}, 2, nil)

	if len(snap) != 1 {
		t.Errorf("snapshot grew after later registration: %d entries", len(snap))
	}
	if r.Len() != 2 {
		t.Errorf("registry should hold 2 entries, got %d", r.Len())
	}
}

func TestRegistrySnapshotPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry(&mockLogger{})

	var handles []string
	for i := int64(1); i <= 4; i++ {
		handles = append(handles, r.Register(&mockSender{}, i, nil))
	}

	snap := r.Snapshot()
	for i, sub := range snap {
		if sub.Handle != handles[i] {
			t.Fatalf("snapshot[%d] = %s, want %s", i, sub.Handle, handles[i])
		}
	}
}

func TestRegistryUpdateFilter(t *testing.T) {
	r := NewRegistry(&mockLogger{})

	handle := r.Register(&mockSender{}, 1, strPtr("Mars"))

	r.UpdateFilter(handle, strPtr("EVGR"))
	snap := r.Snapshot()
	if snap[0].Filter == nil || *snap[0].Filter != "EVGR" {
		t.Errorf("filter not updated, got %v", snap[0].Filter)
	}

	r.UpdateFilter(handle, nil)
	snap = r.Snapshot()
	if snap[0].Filter != nil {
		t.Errorf("filter not cleared, got %v", *snap[0].Filter)
	}

	// Updating an already-closed handle is a no-op, never an error.
	r.Unregister(handle)
	r.UpdateFilter(handle, strPtr("Mars"))
}

func TestRegistryCopiesFilterValue(t *testing.T) {
	r := NewRegistry(&mockLogger{})

	filter := "Mars"
	r.Register(&mockSender{}, 1, &filter)
	filter = "EVGR"

	snap := r.Snapshot()
	if *snap[0].Filter != "Mars" {
		t.Errorf("registry exposed caller mutation, filter = %q", *snap[0].Filter)
	}
}

func TestRegistryHandlesAreUnique(t *testing.T) {
	r := NewRegistry(&mockLogger{})

	seen := make(map[string]bool)
	for i := int64(0); i < 100; i++ {
		handle := r.Register(&mockSender{}, i, nil)
		if seen[handle] {
			t.Fatalf("handle %s issued twice", handle)
		}
		seen[handle] = true
	}
}
