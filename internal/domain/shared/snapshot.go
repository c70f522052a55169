package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntitySnapshot is an audit record of an entity taken after a
// successful reconciliation. The payload is the entity serialized as
// JSON at the time of the snapshot; SourcePath links back to the file
// that produced the change.
type EntitySnapshot struct {
	BaseEntity
	EntityType string    `gorm:"type:varchar(50);not null;index:idx_snapshot_entity,priority:1"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index:idx_snapshot_entity,priority:2"`
	ActingAs   string    `gorm:"type:varchar(100);not null"`
	SourcePath string    `gorm:"type:varchar(500)"`
	Payload    []byte    `gorm:"type:jsonb"`
	TakenAt    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (EntitySnapshot) TableName() string {
	return "entity_snapshots"
}

// NewEntitySnapshot creates a snapshot record for the given entity
func NewEntitySnapshot(entityType string, entityID uuid.UUID, actingAs, sourcePath string, payload []byte) *EntitySnapshot {
	return &EntitySnapshot{
		BaseEntity: NewBaseEntity(),
		EntityType: entityType,
		EntityID:   entityID,
		ActingAs:   actingAs,
		SourcePath: sourcePath,
		Payload:    payload,
		TakenAt:    time.Now(),
	}
}

// SnapshotRepository persists audit snapshots
type SnapshotRepository interface {
	Record(ctx context.Context, snapshot *EntitySnapshot) error
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]EntitySnapshot, error)
}
