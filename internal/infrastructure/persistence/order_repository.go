package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByOrderNumber finds an order by its customer-facing number with
// lines preloaded
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, importerID uuid.UUID, orderNumber string) (*trade.Order, error) {
	var order trade.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("importer_id = ? AND order_number = ?", importerID, orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Save upserts the order header fields. Lines are managed only through
// ReplaceLines so partial line updates cannot happen by accident.
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).Omit("Lines").Save(order).Error
}

// ReplaceLines atomically swaps the order's line set for the given one
func (r *GormOrderRepository) ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []trade.OrderLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&trade.OrderLine{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}

var _ trade.OrderRepository = (*GormOrderRepository)(nil)
