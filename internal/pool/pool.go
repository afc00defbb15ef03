// Package pool adapts sync.Pool to a typed API so callers don't sprinkle
// type assertions around every Get.
package pool

import "sync"

// Pool is a type-safe wrapper around sync.Pool.
type Pool[T any] struct {
	raw sync.Pool
}

// New builds a Pool whose items are produced by newItem when the pool is
// empty.
func New[T any](newItem func() T) *Pool[T] {
	p := &Pool[T]{}
	p.raw.New = func() any { return newItem() }
	return p
}

// Get returns an item from the pool, creating one if necessary.
func (p *Pool[T]) Get() T {
	return p.raw.Get().(T)
}

// Put returns item to the pool for reuse.
func (p *Pool[T]) Put(item T) {
	p.raw.Put(item)
}
