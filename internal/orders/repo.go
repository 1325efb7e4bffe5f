package orders

import (
	"context"
	"errors"

	"github.com/angelmondragon/orderstock/pkg/db"
	"github.com/angelmondragon/orderstock/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderstock/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed order store.
func NewRepository(conn *gorm.DB) Store {
	return &repository{db: conn}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (uuid.UUID, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDuplicateID, err, "order id already exists").
				WithDetails(map[string]any{"order_id": order.ID.String()})
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "insert order")
	}
	return order.ID, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orderNotFound(id)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "find order")
	}
	return &order, nil
}

func (r *repository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "list customer orders")
	}
	return orders, nil
}

func (r *repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, res.Error, "delete order")
	}
	if res.RowsAffected == 0 {
		return orderNotFound(id)
	}
	return nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "list orders")
	}
	return orders, nil
}

func orderNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found").
		WithDetails(map[string]any{"order_id": id.String()})
}
