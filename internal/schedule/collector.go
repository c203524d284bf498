package schedule

import (
	"sync"

	"github.com/discochess/insight/internal/engine"
)

// collector gathers one evaluation per ply of a game. It resolves once every
// slot holds a value; partial and repeated fills are ordinary progress.
type collector struct {
	mu        sync.Mutex
	slots     []engine.Evaluation
	filled    []bool
	remaining int
	done      chan struct{}
}

func newCollector(n int) *collector {
	c := &collector{
		slots:     make([]engine.Evaluation, n),
		filled:    make([]bool, n),
		remaining: n,
		done:      make(chan struct{}),
	}
	if n == 0 {
		close(c.done)
	}
	return c
}

// fill stores ev at ply and reports whether the slot was empty. Out of
// range plies and refills are ignored.
func (c *collector) fill(ply int, ev engine.Evaluation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ply < 0 || ply >= len(c.slots) || c.filled[ply] {
		return false
	}
	c.slots[ply] = ev
	c.filled[ply] = true
	c.remaining--
	if c.remaining == 0 {
		close(c.done)
	}
	return true
}

// Done is closed when every slot is filled.
func (c *collector) Done() <-chan struct{} { return c.done }

// missing returns the number of empty slots.
func (c *collector) missing() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// values returns the evaluations, or false while any slot is empty.
func (c *collector) values() ([]engine.Evaluation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 0 {
		return nil, false
	}
	out := make([]engine.Evaluation, len(c.slots))
	copy(out, c.slots)
	return out, true
}
