package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/domain/logistics"
	"github.com/tradeflow/backend/internal/domain/shared"
)

func TestGormPortRepository_FindByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPortRepository(db)
	ctx := context.Background()

	seed := func(codeType logistics.PortCodeType, code, name string) {
		port, err := logistics.NewPort(codeType, code, name)
		require.NoError(t, err)
		require.NoError(t, db.Create(port).Error)
	}
	seed(logistics.PortCodeTypeUNLOC, "CNSHA", "Shanghai")
	seed(logistics.PortCodeTypeSchedK, "57035", "Shanghai")

	t.Run("resolves a UN/LOCODE", func(t *testing.T) {
		port, err := repo.FindByCode(ctx, logistics.PortCodeTypeUNLOC, "CNSHA")
		require.NoError(t, err)
		assert.Equal(t, "Shanghai", port.Name)
	})

	t.Run("the same city under different schemes are distinct rows", func(t *testing.T) {
		unloc, err := repo.FindByCode(ctx, logistics.PortCodeTypeUNLOC, "CNSHA")
		require.NoError(t, err)
		schedK, err := repo.FindByCode(ctx, logistics.PortCodeTypeSchedK, "57035")
		require.NoError(t, err)
		assert.NotEqual(t, unloc.ID, schedK.ID)
	})

	t.Run("returns ErrNotFound for unknown code", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, logistics.PortCodeTypeUNLOC, "XXXXX")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
