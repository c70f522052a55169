package reconcile_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/application/reconcile"
	"github.com/tradeflow/backend/internal/domain/logistics"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"github.com/tradeflow/backend/internal/infrastructure/edi"
	"github.com/tradeflow/backend/internal/infrastructure/locking"
	"github.com/tradeflow/backend/internal/infrastructure/persistence"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// harness wires the reconcilers against an in-memory database and an
// in-memory lock registry, the same shape as production wiring.
type harness struct {
	db        *gorm.DB
	scope     *persistence.GormTransactionScope
	locks     shared.LockRegistry
	orders    *persistence.GormOrderRepository
	shipments *persistence.GormShipmentRepository
	ports     *persistence.GormPortRepository
	snapshots *persistence.GormSnapshotRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&trade.Product{},
		&trade.Company{},
		&trade.Division{},
		&trade.Order{},
		&trade.OrderLine{},
		&logistics.Port{},
		&logistics.Shipment{},
		&logistics.Container{},
		&logistics.ShipmentLine{},
		&shared.EntitySnapshot{},
	)
	require.NoError(t, err)

	locks := locking.NewInMemoryLockRegistry()
	t.Cleanup(func() { _ = locks.Close() })

	return &harness{
		db:        db,
		scope:     persistence.NewGormTransactionScope(db),
		locks:     locks,
		orders:    persistence.NewGormOrderRepository(db),
		shipments: persistence.NewGormShipmentRepository(db),
		ports:     persistence.NewGormPortRepository(db),
		snapshots: persistence.NewGormSnapshotRepository(db),
	}
}

func (h *harness) orderReconciler() *reconcile.OrderReconciler {
	return reconcile.NewOrderReconciler(h.scope, h.locks, shared.DefaultLockConfig(), nil)
}

func (h *harness) shipmentReconciler() *reconcile.ShipmentReconciler {
	return reconcile.NewShipmentReconciler(h.scope, h.shipments, h.orders, h.ports, h.locks, shared.DefaultLockConfig(), nil)
}

// parseOne splits a raw document and requires exactly one transaction
func parseOne(t *testing.T, raw string) edi.Transaction {
	t.Helper()
	transactions, err := edi.SplitTransactions([]byte(raw))
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	return transactions[0]
}

func decimalFromString(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	value, err := decimal.NewFromString(raw)
	require.NoError(t, err)
	return value
}
