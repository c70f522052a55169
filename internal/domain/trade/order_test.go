package trade

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/domain/shared"
)

func TestOrder_InvalidHeaderValues(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Order)
		problems int
	}{
		{
			name:     "clean header",
			mutate:   func(o *Order) { o.Currency = "USD"; o.CountryOrigin = "VN" },
			problems: 0,
		},
		{
			name:     "empty optional fields",
			mutate:   func(o *Order) {},
			problems: 0,
		},
		{
			name:     "currency is not a code",
			mutate:   func(o *Order) { o.Currency = "USDOLLAR" },
			problems: 1,
		},
		{
			name:     "country of origin too long",
			mutate:   func(o *Order) { o.CountryOrigin = "VNM" },
			problems: 1,
		},
		{
			name:     "season overflows its column",
			mutate:   func(o *Order) { o.Season = strings.Repeat("X", 21) },
			problems: 1,
		},
		{
			name:     "multiple problems reported together",
			mutate:   func(o *Order) { o.Currency = "$"; o.CountryOrigin = "V" },
			problems: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrder(uuid.New(), "PO-1")
			require.NoError(t, err)
			tt.mutate(order)

			assert.Len(t, order.InvalidHeaderValues(), tt.problems)

			err = order.BeforeSave(nil)
			if tt.problems == 0 {
				assert.NoError(t, err)
				return
			}
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "INVALID_ORDER_DATA", domainErr.Code)

			// After clearing, the order is storable again
			order.ClearInvalidHeaderValues()
			assert.Empty(t, order.InvalidHeaderValues())
			assert.NoError(t, order.BeforeSave(nil))
		})
	}
}

func TestOrderLine_CloneForTariff(t *testing.T) {
	line, err := NewOrderLine(uuid.New(), 4, uuid.New(), decimal.NewFromInt(120))
	require.NoError(t, err)
	line.SKU = "SKU-M"
	line.TariffCode = SentinelTariff
	line.SetCustomAttribute("DP", "D071")

	dup := line.CloneForTariff(2, "6110202069", decimal.NewFromInt(3))

	assert.Equal(t, 402, dup.LineNumber)
	assert.Equal(t, "6110202069", dup.TariffCode)
	assert.Equal(t, "SKU-M", dup.SKU)
	assert.NotEqual(t, line.ID, dup.ID)
	assert.Equal(t, "D071", dup.CustomAttributes["DP"])

	// The copy owns its attribute map
	dup.SetCustomAttribute("DP", "OTHER")
	assert.Equal(t, "D071", line.CustomAttributes["DP"])
}
