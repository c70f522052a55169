package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindOrCreateByStyle resolves a product by style, creating it when
// absent. A concurrent insert between the lookup and the create is
// resolved by retrying the lookup once.
func (r *GormProductRepository) FindOrCreateByStyle(ctx context.Context, importerID uuid.UUID, style string) (*trade.Product, error) {
	product, err := r.findByStyle(ctx, importerID, style)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	product, err = trade.NewProduct(importerID, style)
	if err != nil {
		return nil, err
	}
	if createErr := r.db.WithContext(ctx).Create(product).Error; createErr != nil {
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return r.findByStyle(ctx, importerID, style)
		}
		return nil, createErr
	}
	return product, nil
}

func (r *GormProductRepository) findByStyle(ctx context.Context, importerID uuid.UUID, style string) (*trade.Product, error) {
	var product trade.Product
	if err := r.db.WithContext(ctx).
		Where("importer_id = ? AND style = ?", importerID, style).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

var _ trade.ProductRepository = (*GormProductRepository)(nil)
