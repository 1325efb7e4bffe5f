package models

import (
	"time"

	"github.com/angelmondragon/orderstock/pkg/enums"
	"github.com/google/uuid"
)

// Order is a confirmed purchase of a single product.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index:idx_orders_customer_id" json:"customer_id"`
	ProductID  uuid.UUID         `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Quantity   int               `gorm:"column:quantity;not null;check:quantity > 0" json:"quantity"`
	Status     enums.OrderStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	CreatedAt  time.Time         `gorm:"column:created_at;not null" json:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}
