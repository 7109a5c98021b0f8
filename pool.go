package packset

import "fmt"

// Pool is a free-list allocator for bitsets of one fixed capacity. It is
// the external consumer the advisory header flags were designed for: Get
// marks a set FlagActive, and Put only accepts sets the caller has marked
// FlagCanBeFreed. Like the rest of the package, a Pool is single-threaded;
// callers sharing one across goroutines must synchronize.
type Pool struct {
	elements uint
	lanes    uint32
	free     []BitSet
}

// NewPool creates a pool handing out bitsets able to hold elements bits.
func NewPool(elements uint) *Pool {
	if elements == 0 {
		panic("packset: bitset capacity must be at least 1 bit")
	}
	return &Pool{
		elements: elements,
		lanes:    reqLanes(elements) - 1,
	}
}

// Get returns an empty bitset of the pool's capacity, reusing free-listed
// storage when available. The returned set carries FlagActive.
func (p *Pool) Get() BitSet {
	var b BitSet
	if n := len(p.free); n > 0 {
		b = p.free[n-1]
		p.free = p.free[:n-1]
		b.Reset()
	} else {
		b = New(p.elements)
	}
	b.SetFlag(FlagActive)
	return b
}

// Put returns a bitset's storage to the pool. The set must carry
// FlagCanBeFreed and match the pool's capacity; reusing it after Put is
// undefined behavior.
func (p *Pool) Put(b BitSet) error {
	if b.Size() != p.lanes {
		return fmt.Errorf("packset: bitset with %d payload lanes returned to pool of %d", b.Size(), p.lanes)
	}
	if !b.HasFlag(FlagCanBeFreed) {
		return fmt.Errorf("packset: bitset not marked FlagCanBeFreed")
	}
	b.ClearFlag(FlagActive)
	b.ClearFlag(FlagCanBeFreed)
	p.free = append(p.free, b)
	return nil
}

// Idle returns the number of free-listed bitsets.
func (p *Pool) Idle() int {
	return len(p.free)
}
