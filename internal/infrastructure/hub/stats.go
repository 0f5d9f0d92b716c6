package hub

// Stats is the aggregate read-only view over the registry.
type Stats struct {
	Total      int            `json:"total_connections"`
	ByLocation map[string]int `json:"connections_by_location"`
}

// Stats counts live connections per configured pickup location from one
// registry snapshot. Connections with no filter subscribe to everything, so
// they are counted in every location's bucket.
func (h *Hub) Stats() Stats {
	return computeStats(h.registry.Snapshot(), h.locations)
}

func computeStats(snapshot []Subscription, locations []string) Stats {
	stats := Stats{
		Total:      len(snapshot),
		ByLocation: make(map[string]int, len(locations)),
	}
	for _, location := range locations {
		n := 0
		for _, sub := range snapshot {
			if sub.Filter == nil || *sub.Filter == location {
				n++
			}
		}
		stats.ByLocation[location] = n
	}
	return stats
}
