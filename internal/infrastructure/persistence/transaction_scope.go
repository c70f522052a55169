package persistence

import (
	"context"

	"github.com/tradeflow/backend/internal/application/reconcile"
	"github.com/tradeflow/backend/internal/domain/logistics"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM
// transactions. Every reconciliation commits all of its writes or none
// of them.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos reconcile.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx})
	})
}

// gormRepositories provides repositories scoped to one transaction
type gormRepositories struct {
	tx *gorm.DB
}

func (r *gormRepositories) Orders() trade.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormRepositories) Products() trade.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormRepositories) Companies() trade.CompanyRepository {
	return NewGormCompanyRepository(r.tx)
}

func (r *gormRepositories) Divisions() trade.DivisionRepository {
	return NewGormDivisionRepository(r.tx)
}

func (r *gormRepositories) Shipments() logistics.ShipmentRepository {
	return NewGormShipmentRepository(r.tx)
}

func (r *gormRepositories) Snapshots() shared.SnapshotRepository {
	return NewGormSnapshotRepository(r.tx)
}

var _ reconcile.TransactionScope = (*GormTransactionScope)(nil)
var _ reconcile.Repositories = (*gormRepositories)(nil)
