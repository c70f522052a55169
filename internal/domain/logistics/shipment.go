package logistics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
)

// Container is one piece of equipment on an ocean shipment. Containers
// are fully rebuilt from the incoming document on every reconciliation.
type Container struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	ShipmentID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ContainerNumber string    `gorm:"type:varchar(20);not null"`
	Size            string    `gorm:"type:varchar(10)"`
	SealNumber      string    `gorm:"type:varchar(30)"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Container) TableName() string {
	return "containers"
}

// NewContainer creates a new container
func NewContainer(shipmentID uuid.UUID, containerNumber string) (*Container, error) {
	if containerNumber == "" {
		return nil, shared.NewDomainError("INVALID_CONTAINER", "Container number cannot be empty")
	}

	now := time.Now()
	return &Container{
		ID:              uuid.New(),
		ShipmentID:      shipmentID,
		ContainerNumber: containerNumber,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ShipmentLine links a shipped item back to the order line it fulfils.
// ContainerID is nil for air shipments, which have no equipment tier.
type ShipmentLine struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	ShipmentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderLineID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ContainerID    *uuid.UUID      `gorm:"type:uuid;index"`
	CartonQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	GrossWeight    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Volume         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	NetWeight      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	NetWeightUOM   string          `gorm:"type:varchar(10)"`
	InvoiceNumber  string          `gorm:"type:varchar(50)"`
	PieceQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShipmentLine) TableName() string {
	return "shipment_lines"
}

// NewShipmentLine creates a new shipment line linked to an order line
func NewShipmentLine(shipmentID, orderLineID uuid.UUID) (*ShipmentLine, error) {
	if orderLineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER_LINE", "Order line ID cannot be empty")
	}

	now := time.Now()
	return &ShipmentLine{
		ID:             uuid.New(),
		ShipmentID:     shipmentID,
		OrderLineID:    orderLineID,
		CartonQuantity: decimal.Zero,
		GrossWeight:    decimal.Zero,
		Volume:         decimal.Zero,
		PieceQuantity:  decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Shipment is an advance ship notice reconciled from an inbound 856
// document, identified by (importer, reference).
type Shipment struct {
	shared.ImporterEntity
	Reference              string              `gorm:"type:varchar(50);not null;index:,unique,composite:importer_identity,priority:2"`
	Mode                   trade.TransportMode `gorm:"type:varchar(10)"`
	VesselCode             string              `gorm:"type:varchar(20)"`
	VesselName             string              `gorm:"type:varchar(100)"`
	Voyage                 string              `gorm:"type:varchar(20)"`
	MasterBill             string              `gorm:"type:varchar(50)"`
	FirstReceiptPortID     *uuid.UUID          `gorm:"type:uuid"`
	LadingPortID           *uuid.UUID          `gorm:"type:uuid"`
	UnladingPortID         *uuid.UUID          `gorm:"type:uuid"`
	FinalDestinationPortID *uuid.UUID          `gorm:"type:uuid"`
	LastForeignPortID      *uuid.UUID          `gorm:"type:uuid"`
	EstDeparture           *time.Time
	EstArrival             *time.Time
	// LastExportedFromSource is the idempotency gate. It is monotonic
	// per shipment: a document whose export timestamp is older than the
	// stored value is skipped entirely.
	LastExportedFromSource *time.Time `gorm:"index"`
	// EntryPreparedAt signals downstream systems that this advice is
	// ready for further processing.
	EntryPreparedAt *time.Time
	Containers      []Container    `gorm:"foreignKey:ShipmentID;references:ID"`
	Lines           []ShipmentLine `gorm:"foreignKey:ShipmentID;references:ID"`
}

// TableName returns the table name for GORM
func (Shipment) TableName() string {
	return "shipments"
}

// NewShipment creates a bare shipment for an importer. Field population
// happens during reconciliation, after the idempotency gate.
func NewShipment(importerID uuid.UUID, reference string) (*Shipment, error) {
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Shipment reference cannot be empty")
	}
	if len(reference) > 50 {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Shipment reference cannot exceed 50 characters")
	}

	return &Shipment{
		ImporterEntity: shared.NewImporterEntity(importerID),
		Reference:      reference,
	}, nil
}

// IsStale reports whether an incoming document with the given export
// timestamp is older than what has already been applied.
func (s *Shipment) IsStale(incoming time.Time) bool {
	return s.LastExportedFromSource != nil && s.LastExportedFromSource.After(incoming)
}

// MarkEntryPrepared stamps the shipment as ready for downstream entry
// preparation.
func (s *Shipment) MarkEntryPrepared(at time.Time) {
	s.EntryPreparedAt = &at
	s.UpdatedAt = time.Now()
}

// IsOcean reports whether the shipment moves by ocean freight
func (s *Shipment) IsOcean() bool {
	return s.Mode == trade.TransportModeOcean
}
