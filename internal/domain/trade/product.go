package trade

import (
	"github.com/google/uuid"
	"github.com/tradeflow/backend/internal/domain/shared"
)

// Product is a style-level item reference, unique by (importer, style).
// Products are resolved or created lazily while reconciling order
// lines; inbound documents rarely carry more than the style identifier.
type Product struct {
	shared.ImporterEntity
	Style string `gorm:"type:varchar(50);not null;index:,unique,composite:importer_identity,priority:2"`
	Name  string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product for an importer
func NewProduct(importerID uuid.UUID, style string) (*Product, error) {
	if style == "" {
		return nil, shared.NewDomainError("INVALID_STYLE", "Product style cannot be empty")
	}

	return &Product{
		ImporterEntity: shared.NewImporterEntity(importerID),
		Style:          style,
	}, nil
}
