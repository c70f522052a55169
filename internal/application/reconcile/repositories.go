// Package reconcile turns parsed EDI transactions into persisted
// orders and shipments for an importing company. It owns the two-tier
// error model: structural errors abort a transaction immediately,
// business-rule violations are accumulated across the whole traversal
// and raised once, in aggregate.
package reconcile

import (
	"context"

	"github.com/tradeflow/backend/internal/domain/logistics"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
)

// Repositories provides access to all repositories within one
// reconciliation transaction.
type Repositories interface {
	Orders() trade.OrderRepository
	Products() trade.ProductRepository
	Companies() trade.CompanyRepository
	Divisions() trade.DivisionRepository
	Shipments() logistics.ShipmentRepository
	Snapshots() shared.SnapshotRepository
}

// TransactionScope executes a function within a single all-or-nothing
// persistence unit. If the function returns an error the whole unit is
// rolled back; partial state is never observable to other readers.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
