package model

// Stats holds the latest raw payload per topic. It keeps no history and
// never evicts: a quiet topic keeps showing its last value.
//
// Stats is not safe for concurrent use; the event loop is its only writer
// and reader.
type Stats struct {
	values map[string]string
}

func NewStats() *Stats {
	return &Stats{values: make(map[string]string)}
}

// Record overwrites the value for topic. Unknown topics are kept as-is.
func (s *Stats) Record(topic, value string) {
	s.values[topic] = value
}

// Snapshot returns a read-only copy for rendering.
func (s *Stats) Snapshot() Snapshot {
	cp := make(map[string]string, len(s.values))
	for k, v := range s.values {
		cp[k] = v
	}
	return Snapshot{values: cp}
}

// Len returns the number of topics seen so far.
func (s *Stats) Len() int { return len(s.values) }

// Snapshot is an immutable view of Stats at one point in time.
type Snapshot struct {
	values map[string]string
}

// Get returns the value for topic and whether it has ever been observed.
func (s Snapshot) Get(topic string) (string, bool) {
	v, ok := s.values[topic]
	return v, ok
}

// Len returns the number of topics in the snapshot.
func (s Snapshot) Len() int { return len(s.values) }
