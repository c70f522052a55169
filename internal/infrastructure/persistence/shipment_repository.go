package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tradeflow/backend/internal/domain/logistics"
	"github.com/tradeflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormShipmentRepository implements ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByReference finds a shipment by its importer-supplied reference
// with containers and lines preloaded
func (r *GormShipmentRepository) FindByReference(ctx context.Context, importerID uuid.UUID, reference string) (*logistics.Shipment, error) {
	var shipment logistics.Shipment
	if err := r.db.WithContext(ctx).
		Preload("Containers").
		Preload("Lines").
		Where("importer_id = ? AND reference = ?", importerID, reference).
		First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &shipment, nil
}

// Create inserts a bare shipment row
func (r *GormShipmentRepository) Create(ctx context.Context, shipment *logistics.Shipment) error {
	return r.db.WithContext(ctx).Omit("Containers", "Lines").Create(shipment).Error
}

// Save upserts the shipment header fields. Containers and lines are
// managed only through ReplaceCargo.
func (r *GormShipmentRepository) Save(ctx context.Context, shipment *logistics.Shipment) error {
	return r.db.WithContext(ctx).Omit("Containers", "Lines").Save(shipment).Error
}

// UpdateExportTimestamp records the source export timestamp as a single
// column write
func (r *GormShipmentRepository) UpdateExportTimestamp(ctx context.Context, shipmentID uuid.UUID, exportedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&logistics.Shipment{}).
		Where("id = ?", shipmentID).
		Update("last_exported_from_source", exportedAt)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplaceCargo atomically swaps the shipment's containers and lines for
// the given sets
func (r *GormShipmentRepository) ReplaceCargo(ctx context.Context, shipmentID uuid.UUID, containers []logistics.Container, lines []logistics.ShipmentLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lines go first; they reference containers
		if err := tx.Where("shipment_id = ?", shipmentID).Delete(&logistics.ShipmentLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shipment_id = ?", shipmentID).Delete(&logistics.Container{}).Error; err != nil {
			return err
		}
		if len(containers) > 0 {
			if err := tx.Create(&containers).Error; err != nil {
				return err
			}
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var _ logistics.ShipmentRepository = (*GormShipmentRepository)(nil)
