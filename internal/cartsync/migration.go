package cartsync

import (
	"context"
	"fmt"

	"github.com/ElisioMassango/chelevi-sub000/internal/commerce"
	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
)

type guestSource interface {
	Items(ctx context.Context) []types.CartLineItem
	Clear(ctx context.Context) error
}

type cartAdder interface {
	AddToCart(ctx context.Context, customerID, productID string, quantity int, variantID string) (*commerce.AddToCartResult, error)
}

// Migrator pushes a guest cart's contents into the remote cart the first time
// an authenticated customer appears. The contract is best-effort: per-item
// failures do not stop the loop and the guest store is cleared after all
// items were attempted.
type Migrator struct {
	api   cartAdder
	guest guestSource
	logg  *logger.Logger
}

// NewMigrator builds the guest-to-user migrator.
func NewMigrator(api cartAdder, guest guestSource, logg *logger.Logger) (*Migrator, error) {
	if api == nil {
		return nil, fmt.Errorf("commerce api required")
	}
	if guest == nil {
		return nil, fmt.Errorf("guest source required")
	}
	return &Migrator{api: api, guest: guest, logg: logg}, nil
}

// Run migrates every guest item sequentially; ordering is deliberate so the
// remote side merges quantities deterministically. Failed product ids are
// logged before the guest store is cleared, so the loss is observable.
func (m *Migrator) Run(ctx context.Context, customerID string) {
	items := m.guest.Items(ctx)
	if len(items) == 0 {
		return
	}

	var failed []string
	for _, item := range items {
		if _, err := m.api.AddToCart(ctx, customerID, item.ID, item.Quantity, item.VariantID); err != nil {
			failed = append(failed, item.ID)
			if m.logg != nil {
				m.logg.Error(m.logg.WithProductID(ctx, item.ID), "guest cart migration item failed", err)
			}
		}
	}

	if len(failed) > 0 && m.logg != nil {
		m.logg.Error(
			m.logg.WithField(ctx, "failed_product_ids", failed),
			"guest cart migration dropped items",
			nil,
		)
	}

	if err := m.guest.Clear(ctx); err != nil && m.logg != nil {
		m.logg.Error(ctx, "clearing guest cart after migration failed", err)
	}

	if m.logg != nil {
		ctx = m.logg.WithFields(ctx, map[string]any{
			"attempted": len(items),
			"failed":    len(failed),
		})
		m.logg.Info(ctx, "guest cart migration finished")
	}
}
