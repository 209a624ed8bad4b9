package layout

import "sync"

// Sequence hands out panel IDs for one dashboard session. An ID is one past
// the highest ID ever seen, so a number retired by a removal is never reused.
type Sequence struct {
	mu   sync.Mutex
	high int
	scan func() []*Panel
}

// NewSequence creates a sequence. scan, when set, lists every panel of the
// dashboard so IDs stay unique across nested layouts.
func NewSequence(scan func() []*Panel) *Sequence {
	return &Sequence{scan: scan}
}

// Next returns a fresh panel ID. local lists panels the caller knows about in
// addition to the scanned ones.
func (s *Sequence) Next(local []*Panel) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	high := s.high
	observe := func(panels []*Panel) {
		for _, p := range panels {
			if p.ID > high {
				high = p.ID
			}
		}
	}
	observe(local)
	if s.scan != nil {
		observe(s.scan())
	}
	s.high = high + 1
	return s.high
}

// Observe raises the high-water mark to id.
func (s *Sequence) Observe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.high {
		s.high = id
	}
}
