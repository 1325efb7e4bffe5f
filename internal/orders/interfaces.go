package orders

import (
	"context"

	"github.com/angelmondragon/orderstock/pkg/db/models"
	"github.com/google/uuid"
)

// Store persists orders. Create reports DUPLICATE_ID when the id is taken;
// lookups by id report ORDER_NOT_FOUND.
type Store interface {
	Create(ctx context.Context, order *models.Order) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]models.Order, error)
}

// Service exposes the order operations used by the HTTP layer.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}
