package logistics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ShipmentRepository persists shipments with their containers and lines
type ShipmentRepository interface {
	// FindByReference finds a shipment by its importer-supplied
	// reference, with containers and lines preloaded. Returns
	// shared.ErrNotFound when absent.
	FindByReference(ctx context.Context, importerID uuid.UUID, reference string) (*Shipment, error)

	// Create inserts a bare shipment row. Callers hold the creation
	// lock for the reference so concurrent arrivals serialize here.
	Create(ctx context.Context, shipment *Shipment) error

	// Save upserts the shipment header fields (not containers or lines)
	Save(ctx context.Context, shipment *Shipment) error

	// UpdateExportTimestamp records the source export timestamp as its
	// own short write, so a failure later in the parse still records
	// the attempt time.
	UpdateExportTimestamp(ctx context.Context, shipmentID uuid.UUID, exportedAt time.Time) error

	// ReplaceCargo atomically swaps the shipment's containers and lines
	// for the given sets. Both collections move together or not at all.
	ReplaceCargo(ctx context.Context, shipmentID uuid.UUID, containers []Container, lines []ShipmentLine) error
}

// PortRepository resolves port reference codes
type PortRepository interface {
	// FindByCode resolves a port by (code type, code). Returns
	// shared.ErrNotFound when the code is unknown.
	FindByCode(ctx context.Context, codeType PortCodeType, code string) (*Port, error)
}
