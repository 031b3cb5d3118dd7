package fallible

// ArenaMetrics is a snapshot of an arena's memory use.
type ArenaMetrics struct {
	SizeInUse   int     `json:"size_in_use"` // Bytes handed out, alignment padding included
	Capacity    int     `json:"capacity"`    // Bytes held in chunks
	NumChunks   int     `json:"num_chunks"`  // Chunks currently held
	ChunkSize   int     `json:"chunk_size"`  // Default size of a new chunk
	MaxBytes    int     `json:"max_bytes"`   // Capacity cap, 0 if none
	Utilization float64 `json:"utilization"` // SizeInUse / Capacity, 0 when empty
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() ArenaMetrics {
	m := ArenaMetrics{
		Capacity:  a.capacity,
		NumChunks: len(a.chunks),
		ChunkSize: a.chunkSize,
		MaxBytes:  a.maxBytes,
	}
	for _, c := range a.chunks {
		m.SizeInUse += int(c.offset)
	}
	if m.Capacity > 0 {
		m.Utilization = float64(m.SizeInUse) / float64(m.Capacity)
	}
	return m
}

// Metrics thread-safely returns a snapshot of arena statistics.
func (s *SafeArena) Metrics() ArenaMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Metrics()
}
