package engine

// Point is one manifold pressure reading on the visualization timeline.
type Point struct {
	Offset float64 `json:"offset"` // seconds since simulation start
	MAP    float64 `json:"map"`    // PSI
}

// History is a fixed-capacity ring of MAP points. Oldest entries are evicted
// on overflow. Not safe for concurrent use; Simulation guards it.
type History struct {
	buf  []Point
	head int // index of the oldest entry
	n    int
}

// NewHistory creates a history with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = defaultHistorySize
	}
	return &History{buf: make([]Point, capacity)}
}

// Push appends a point, evicting the oldest when full.
func (h *History) Push(p Point) {
	if h.n < len(h.buf) {
		h.buf[(h.head+h.n)%len(h.buf)] = p
		h.n++
		return
	}
	h.buf[h.head] = p
	h.head = (h.head + 1) % len(h.buf)
}

// Len returns the number of stored points.
func (h *History) Len() int { return h.n }

// Cap returns the configured capacity.
func (h *History) Cap() int { return len(h.buf) }

// Points returns the stored points oldest-first as a fresh slice.
func (h *History) Points() []Point {
	out := make([]Point, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}
