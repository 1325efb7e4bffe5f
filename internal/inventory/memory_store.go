package inventory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// MemoryStore keeps quantities in process. The map lock only guards lookup and
// insertion; each product's counter is mutated with compare-and-swap so
// reservations on different products never contend.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*atomic.Int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]*atomic.Int64)}
}

func (s *MemoryStore) counter(productID uuid.UUID) *atomic.Int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[productID]
}

func (s *MemoryStore) TryReserve(ctx context.Context, productID uuid.UUID, qty int) (Outcome, error) {
	if err := requirePositive(qty); err != nil {
		return NotFound, err
	}
	if err := ctx.Err(); err != nil {
		return NotFound, dependencyErr(err, "reserve inventory", productID)
	}
	c := s.counter(productID)
	if c == nil {
		return NotFound, nil
	}
	want := int64(qty)
	for {
		cur := c.Load()
		if cur < want {
			return InsufficientStock, nil
		}
		if c.CompareAndSwap(cur, cur-want) {
			return Reserved, nil
		}
	}
}

// Release ignores ctx cancellation; compensations must land.
func (s *MemoryStore) Release(_ context.Context, productID uuid.UUID, qty int) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	c := s.counter(productID)
	if c == nil {
		return productNotFound(productID)
	}
	c.Add(int64(qty))
	return nil
}

func (s *MemoryStore) SetStock(_ context.Context, productID uuid.UUID, qty int) error {
	if err := requireNonNegative(qty); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.items[productID]; ok {
		c.Store(int64(qty))
		return nil
	}
	c := &atomic.Int64{}
	c.Store(int64(qty))
	s.items[productID] = c
	return nil
}

func (s *MemoryStore) Available(_ context.Context, productID uuid.UUID) (int, error) {
	c := s.counter(productID)
	if c == nil {
		return 0, productNotFound(productID)
	}
	return int(c.Load()), nil
}
