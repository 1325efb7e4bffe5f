package orders

import (
	"time"

	"github.com/angelmondragon/orderstock/pkg/db/models"
	"github.com/angelmondragon/orderstock/pkg/enums"
	"github.com/google/uuid"
)

// CreateOrderInput is the caller-supplied part of a new order.
type CreateOrderInput struct {
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID         uuid.UUID         `json:"id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	ProductID  uuid.UUID         `json:"product_id"`
	Quantity   int               `json:"quantity"`
	Status     enums.OrderStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

func ToDTO(order models.Order) OrderDTO {
	return OrderDTO{
		ID:         order.ID,
		CustomerID: order.CustomerID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
	}
}

func ToDTOs(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToDTO(o))
	}
	return out
}
