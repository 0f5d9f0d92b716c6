package hub

import "testing"

func strPtr(s string) *string { return &s }

// Exhaustive check of the delivery predicate over every combination of
// connection filter and event scope drawn from {nil, "all", "X", "Y"}.
func TestShouldDeliver(t *testing.T) {
	values := map[string]*string{
		"nil": nil,
		"all": strPtr("all"),
		"X":   strPtr("X"),
		"Y":   strPtr("Y"),
	}

	// Delivery happens iff the scope is nil, the filter is nil, both
	// match exactly, or the scope is the "all" sentinel.
	expected := map[[2]string]bool{
		{"nil", "nil"}: true, {"nil", "all"}: true, {"nil", "X"}: true, {"nil", "Y"}: true,
		{"all", "nil"}: true, {"all", "all"}: true, {"all", "X"}: false, {"all", "Y"}: false,
		{"X", "nil"}: true, {"X", "all"}: true, {"X", "X"}: true, {"X", "Y"}: false,
		{"Y", "nil"}: true, {"Y", "all"}: true, {"Y", "X"}: false, {"Y", "Y"}: true,
	}

	for pair, want := range expected {
		filter, scope := values[pair[0]], values[pair[1]]
		if got := shouldDeliver(filter, scope); got != want {
			t.Errorf("shouldDeliver(filter=%s, scope=%s) = %v, want %v", pair[0], pair[1], got, want)
		}
	}
}
