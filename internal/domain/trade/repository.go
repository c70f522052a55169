package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository persists orders and their lines
type OrderRepository interface {
	// FindByOrderNumber finds an order by its customer-facing number,
	// with lines preloaded. Returns shared.ErrNotFound when absent.
	FindByOrderNumber(ctx context.Context, importerID uuid.UUID, orderNumber string) (*Order, error)

	// Save upserts the order header fields (not its lines)
	Save(ctx context.Context, order *Order) error

	// ReplaceLines atomically swaps the order's line set for the given
	// one. The previous lines are discarded; line numbers never merge.
	ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []OrderLine) error
}

// ProductRepository persists style-level product references
type ProductRepository interface {
	// FindOrCreateByStyle resolves a product by style, creating it when absent
	FindOrCreateByStyle(ctx context.Context, importerID uuid.UUID, style string) (*Product, error)
}

// CompanyRepository persists trading partners
type CompanyRepository interface {
	// FindOrCreate resolves a company by (type, system code), creating it when absent
	FindOrCreate(ctx context.Context, importerID uuid.UUID, companyType CompanyType, systemCode, name string) (*Company, error)
}

// DivisionRepository persists importer divisions
type DivisionRepository interface {
	// FindOrCreateByName resolves a division by name, creating it when absent
	FindOrCreateByName(ctx context.Context, importerID uuid.UUID, name string) (*Division, error)
}
