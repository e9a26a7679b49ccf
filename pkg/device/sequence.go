package device

import (
	"math"
	"sync"
)

// sequence issues command ids. Ids start at 1 and wrap back to 1 after
// math.MaxInt.
type sequence struct {
	mu   sync.Mutex
	last int
}

func (s *sequence) next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == math.MaxInt {
		s.last = 0
	}
	s.last++
	return s.last
}
