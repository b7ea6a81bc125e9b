// Package arena provides fixed-capacity blocks of 16-bit values that are
// linked into chains and recycled through a shared free list.
//
// Mesh builders append vertex and index data into chains; once the data has
// been flattened into a GPU buffer the blocks go back to the pool so the next
// mesh can reuse them.
package arena

import "sync"

// BlockSize is the number of values a block holds. It is a multiple of 2, 3, 4,
// 6 and 8 so that whole vertices, triangles and quads never straddle blocks.
const BlockSize = 360

// DefaultMaxFree bounds the number of idle blocks a pool keeps.
const DefaultMaxFree = 4096

// Value is the element type a block can hold.
type Value interface {
	~int16 | ~uint16
}

// Block is a fixed-capacity array of values with a fill counter.
type Block[T Value] struct {
	Data [BlockSize]T
	Used int
	Next *Block[T]
}

// Full reports whether no more values fit into the block.
func (b *Block[T]) Full() bool {
	return b.Used == BlockSize
}

// Values returns the used part of the block.
func (b *Block[T]) Values() []T {
	return b.Data[:b.Used]
}

// Stats describes pool usage.
type Stats struct {
	Allocated int // blocks created by the pool
	Free      int // blocks currently idle in the free list
}

// Pool is a free list of blocks. It is safe for concurrent use.
type Pool[T Value] struct {
	mu        sync.Mutex
	free      *Block[T]
	numFree   int
	allocated int
	maxFree   int
}

// NewPool creates a pool keeping at most maxFree idle blocks.
// A non-positive maxFree selects DefaultMaxFree.
func NewPool[T Value](maxFree int) *Pool[T] {
	if maxFree <= 0 {
		maxFree = DefaultMaxFree
	}
	return &Pool[T]{maxFree: maxFree}
}

// Get returns an empty block.
func (p *Pool[T]) Get() *Block[T] {
	p.mu.Lock()
	b := p.free
	if b != nil {
		p.free = b.Next
		p.numFree--
	} else {
		p.allocated++
	}
	p.mu.Unlock()

	if b == nil {
		return &Block[T]{}
	}
	b.Next = nil
	b.Used = 0
	return b
}

// GetNext marks b as full, links a fresh block after it and returns the new block.
func (p *Pool[T]) GetNext(b *Block[T]) *Block[T] {
	n := p.Get()
	b.Used = BlockSize
	b.Next = n
	return n
}

// Release returns a single block to the pool.
func (p *Pool[T]) Release(b *Block[T]) {
	if b == nil {
		return
	}
	b.Next = nil
	p.ReleaseAll(b)
}

// ReleaseAll returns every block of the list starting at head and always
// returns nil, so callers can write `head = pool.ReleaseAll(head)`.
func (p *Pool[T]) ReleaseAll(head *Block[T]) *Block[T] {
	if head == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for b := head; b != nil; {
		next := b.Next
		b.Used = 0
		if p.numFree < p.maxFree {
			b.Next = p.free
			p.free = b
			p.numFree++
		} else {
			b.Next = nil
			p.allocated--
		}
		b = next
	}
	return nil
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Allocated: p.allocated, Free: p.numFree}
}

// InUse returns the number of blocks currently borrowed from the pool.
func (p *Pool[T]) InUse() int {
	s := p.Stats()
	return s.Allocated - s.Free
}
