package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradeflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSnapshotRepository implements SnapshotRepository using GORM
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Record inserts an audit snapshot
func (r *GormSnapshotRepository) Record(ctx context.Context, snapshot *shared.EntitySnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// FindByEntity returns all snapshots for an entity, newest first
func (r *GormSnapshotRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]shared.EntitySnapshot, error) {
	var snapshots []shared.EntitySnapshot
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("taken_at DESC").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

var _ shared.SnapshotRepository = (*GormSnapshotRepository)(nil)
