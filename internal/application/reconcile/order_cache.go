package reconcile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
)

// orderCache memoizes order lookups for one shipment traversal. The
// same order number routinely appears under several equipment loops;
// both hits and misses are cached. The cache lives for exactly one
// transaction and is never shared across goroutines.
type orderCache struct {
	repo       trade.OrderRepository
	importerID uuid.UUID
	entries    map[string]*trade.Order
}

func newOrderCache(repo trade.OrderRepository, importerID uuid.UUID) *orderCache {
	return &orderCache{
		repo:       repo,
		importerID: importerID,
		entries:    make(map[string]*trade.Order),
	}
}

// Lookup resolves an order by number. A nil order with nil error means
// the order is not known to the system (a cached miss); errors are
// storage failures only.
func (c *orderCache) Lookup(ctx context.Context, orderNumber string) (*trade.Order, error) {
	if order, cached := c.entries[orderNumber]; cached {
		return order, nil
	}

	order, err := c.repo.FindByOrderNumber(ctx, c.importerID, orderNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			c.entries[orderNumber] = nil
			return nil, nil
		}
		return nil, err
	}

	c.entries[orderNumber] = order
	return order, nil
}
