// Package pdv runs the point-of-sale screen server side: one long-lived cart
// per operator, fed from the product catalog and the customer directory.
package pdv

import (
	"sync"

	"hortifruti-pdv/internal/cart"
)

// Registry keeps one cart per operator for the life of the process.
type Registry struct {
	mu    sync.Mutex
	carts map[uint]*cart.Cart
	opts  []cart.Option
}

func NewRegistry(opts ...cart.Option) *Registry {
	return &Registry{carts: make(map[uint]*cart.Cart), opts: opts}
}

// Get returns the operator's cart, creating an empty one on first use.
func (r *Registry) Get(userID uint) *cart.Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		c = cart.New(r.opts...)
		r.carts[userID] = c
	}
	return c
}

// Reset discards the operator's cart. A checkout already in flight on the
// old cart still completes; the next Get starts fresh.
func (r *Registry) Reset(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
}
