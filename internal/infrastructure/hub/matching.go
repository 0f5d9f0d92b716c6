package hub

// shouldDeliver decides whether an event scoped to scope reaches a connection
// subscribed with filter. Exactly one of four rules must hold:
//
//  1. the event has no scope (global), or
//  2. the connection has no filter (receives everything), or
//  3. filter and scope match exactly, or
//  4. the event scope is the "all" sentinel.
func shouldDeliver(filter, scope *string) bool {
	if scope == nil {
		return true
	}
	if filter == nil {
		return true
	}
	if *filter == *scope {
		return true
	}
	return *scope == ScopeAll
}
