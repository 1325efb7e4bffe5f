package orders

import (
	"context"
	"sync"

	"github.com/angelmondragon/orderstock/internal/inventory"
	"github.com/google/uuid"
)

// hold is a successful reservation that has not been persisted yet. It is
// either settled by a persisted order or released exactly once.
type hold struct {
	store     inventory.Store
	productID uuid.UUID
	qty       int

	mu       sync.Mutex
	settled  bool
	released bool
}

func newHold(store inventory.Store, productID uuid.UUID, qty int) *hold {
	return &hold{store: store, productID: productID, qty: qty}
}

// settle marks the stock as consumed by a persisted order.
func (h *hold) settle() {
	h.mu.Lock()
	h.settled = true
	h.mu.Unlock()
}

// release returns the stock unless the hold was settled or already released.
// A failed release is not retried here; the caller reports it.
func (h *hold) release(ctx context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.settled || h.released {
		return false, nil
	}
	h.released = true
	return true, h.store.Release(ctx, h.productID, h.qty)
}
