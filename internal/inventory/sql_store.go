package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/orderstock/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps quantities in the inventory_items table.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// TryReserve decrements with a single conditional UPDATE, so the row lock
// taken by the database serialises competing reservations on one product.
func (s *SQLStore) TryReserve(ctx context.Context, productID uuid.UUID, qty int) (Outcome, error) {
	if err := requirePositive(qty); err != nil {
		return NotFound, err
	}

	res := s.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ? AND available_qty >= ?", productID, qty).
		Updates(map[string]any{
			"available_qty": gorm.Expr("available_qty - ?", qty),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return NotFound, dependencyErr(res.Error, "reserve inventory", productID)
	}
	if res.RowsAffected == 1 {
		return Reserved, nil
	}

	exists, err := s.exists(ctx, productID)
	if err != nil {
		return NotFound, dependencyErr(err, "look up inventory", productID)
	}
	if !exists {
		return NotFound, nil
	}
	return InsufficientStock, nil
}

func (s *SQLStore) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"available_qty": gorm.Expr("available_qty + ?", qty),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return dependencyErr(res.Error, "release inventory", productID)
	}
	if res.RowsAffected == 0 {
		return productNotFound(productID)
	}
	return nil
}

func (s *SQLStore) SetStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if err := requireNonNegative(qty); err != nil {
		return err
	}
	item := models.InventoryItem{ProductID: productID, AvailableQty: qty, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"available_qty", "updated_at"}),
		}).
		Create(&item).Error
	if err != nil {
		return dependencyErr(err, "set stock", productID)
	}
	return nil
}

func (s *SQLStore) Available(ctx context.Context, productID uuid.UUID) (int, error) {
	var item models.InventoryItem
	err := s.db.WithContext(ctx).Where("product_id = ?", productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, productNotFound(productID)
	}
	if err != nil {
		return 0, dependencyErr(err, "read inventory", productID)
	}
	return item.AvailableQty, nil
}

func (s *SQLStore) exists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count > 0, err
}
