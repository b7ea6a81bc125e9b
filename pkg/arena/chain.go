package arena

// Chain is a growable sequence backed by pool blocks. It keeps the head of the
// list and a cursor on the block currently being filled.
//
// A Chain is not safe for concurrent use; only the pool is shared.
type Chain[T Value] struct {
	pool *Pool[T]
	head *Block[T]
	cur  *Block[T]
	n    int
}

// NewChain creates an empty chain drawing blocks from pool.
// No block is borrowed until the first append.
func NewChain[T Value](pool *Pool[T]) *Chain[T] {
	return &Chain[T]{pool: pool}
}

// Append adds values to the end of the chain.
func (c *Chain[T]) Append(values ...T) {
	for _, v := range values {
		c.reserve()
		c.cur.Data[c.cur.Used] = v
		c.cur.Used++
	}
	c.n += len(values)
}

func (c *Chain[T]) reserve() {
	if c.cur == nil {
		c.head = c.pool.Get()
		c.cur = c.head
		return
	}
	if c.cur.Full() {
		c.cur = c.pool.GetNext(c.cur)
	}
}

// Len returns the number of values in the chain.
func (c *Chain[T]) Len() int {
	return c.n
}

// Head returns the first block, or nil for an empty chain.
func (c *Chain[T]) Head() *Block[T] {
	return c.head
}

// Each calls fn with the used values of every block in order.
func (c *Chain[T]) Each(fn func(values []T)) {
	for b := c.head; b != nil; b = b.Next {
		if b.Used > 0 {
			fn(b.Values())
		}
	}
}

// AppendTo appends the chain content to dst and returns the extended slice.
func (c *Chain[T]) AppendTo(dst []T) []T {
	c.Each(func(values []T) {
		dst = append(dst, values...)
	})
	return dst
}

// Release returns all blocks to the pool and resets the chain.
func (c *Chain[T]) Release() {
	c.head = c.pool.ReleaseAll(c.head)
	c.cur = nil
	c.n = 0
}
