package core

// History keeps the most recent rows of a one-dimensional simulation as a
// scrolling space-time buffer: row 0 is the newest state, older rows move
// downwards.
type History struct {
	W, H int
	data []uint8
}

// NewHistory allocates a history of h rows of w cells.
func NewHistory(w, h int) *History {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &History{W: w, H: h, data: make([]uint8, w*h)}
}

// Cells exposes the row-major buffer.
func (h *History) Cells() []uint8 { return h.data }

// Push scrolls the history down by one row and writes row at the top.
func (h *History) Push(row []uint8) {
	copy(h.data[h.W:], h.data[:h.W*(h.H-1)])
	copy(h.data[:h.W], row)
}

// Clear fills the history with zeros.
func (h *History) Clear() {
	for i := range h.data {
		h.data[i] = 0
	}
}
