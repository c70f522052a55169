package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ImporterEntity extends BaseEntity with the owning importer.
// Every reconciled aggregate belongs to exactly one importing company;
// all lookups are scoped by ImporterID. The importer leads the
// importer_identity composite unique index; each embedding aggregate
// contributes its own identity columns under the same composite id so
// identities are unique per importer, never globally.
type ImporterEntity struct {
	BaseEntity
	ImporterID uuid.UUID `gorm:"type:uuid;not null;index:,unique,composite:importer_identity,priority:1"`
}

// NewImporterEntity creates a new importer-scoped entity
func NewImporterEntity(importerID uuid.UUID) ImporterEntity {
	return ImporterEntity{
		BaseEntity: NewBaseEntity(),
		ImporterID: importerID,
	}
}

// GetImporterID returns the owning importer ID
func (e *ImporterEntity) GetImporterID() uuid.UUID {
	return e.ImporterID
}
