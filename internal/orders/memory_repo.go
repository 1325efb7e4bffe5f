package orders

import (
	"context"
	"sort"
	"sync"

	"github.com/angelmondragon/orderstock/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderstock/pkg/errors"
	"github.com/google/uuid"
)

// MemoryRepository is an in-process Store for local runs and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]models.Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[uuid.UUID]models.Order)}
}

func (r *MemoryRepository) Create(ctx context.Context, order *models.Order) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "insert order")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeDuplicateID, "order id already exists").
			WithDetails(map[string]any{"order_id": order.ID.String()})
	}
	r.orders[order.ID] = *order
	return order.ID, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, orderNotFound(id)
	}
	return &order, nil
}

func (r *MemoryRepository) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]models.Order, error) {
	return r.collect(func(o models.Order) bool { return o.CustomerID == customerID }), nil
}

func (r *MemoryRepository) DeleteByID(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return orderNotFound(id)
	}
	delete(r.orders, id)
	return nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]models.Order, error) {
	return r.collect(func(models.Order) bool { return true }), nil
}

func (r *MemoryRepository) collect(keep func(models.Order) bool) []models.Order {
	r.mu.RLock()
	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
