package persistence

import (
	"context"
	"errors"

	"github.com/tradeflow/backend/internal/domain/logistics"
	"github.com/tradeflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPortRepository implements PortRepository using GORM
type GormPortRepository struct {
	db *gorm.DB
}

// NewGormPortRepository creates a new GormPortRepository
func NewGormPortRepository(db *gorm.DB) *GormPortRepository {
	return &GormPortRepository{db: db}
}

// FindByCode resolves a port by (code type, code). Ports are reference
// data loaded out of band; this repository never creates them.
func (r *GormPortRepository) FindByCode(ctx context.Context, codeType logistics.PortCodeType, code string) (*logistics.Port, error) {
	var port logistics.Port
	if err := r.db.WithContext(ctx).
		Where("code_type = ? AND code = ?", codeType, code).
		First(&port).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &port, nil
}

var _ logistics.PortRepository = (*GormPortRepository)(nil)
