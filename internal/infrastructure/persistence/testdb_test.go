package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/domain/logistics"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
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

	return db
}
