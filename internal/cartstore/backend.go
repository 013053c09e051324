package cartstore

import (
	"context"

	"github.com/ElisioMassango/chelevi-sub000/internal/cartsync"
	"github.com/ElisioMassango/chelevi-sub000/internal/guestcart"
	pkgerrors "github.com/ElisioMassango/chelevi-sub000/pkg/errors"
	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
)

// result is what a backend hands back after an operation: the item list to
// display and, for the remote backend, the authoritative snapshot.
type result struct {
	items    []types.CartLineItem
	snapshot *types.RemoteCartSnapshot
}

// CartBackend performs cart operations against one source of truth. The cart
// store picks a backend per operation based on whether an authenticated
// customer is present, keeping its own logic backend-agnostic.
type CartBackend interface {
	Load(ctx context.Context) (result, error)
	Add(ctx context.Context, item types.CartLineItem, quantity int) (result, error)
	SetQuantity(ctx context.Context, productID string, current, desired int, variantID string) (result, error)
	ApplyCoupon(ctx context.Context, code string, prior []types.CartLineItem) (result, error)
	Remote() bool
}

// GuestBackend keeps the cart in device-local storage. Persistence failures
// degrade silently: the in-memory list stays correct and the UI stays usable.
type GuestBackend struct {
	store *guestcart.Store
	logg  *logger.Logger
}

func (b *GuestBackend) Remote() bool { return false }

func (b *GuestBackend) Load(ctx context.Context) (result, error) {
	return result{items: b.store.Items(ctx)}, nil
}

// Add merges into the persisted list: a second add of an existing product id
// adds quantities instead of duplicating the row.
func (b *GuestBackend) Add(ctx context.Context, item types.CartLineItem, quantity int) (result, error) {
	items := b.store.Items(ctx)

	merged := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		item.Quantity = quantity
		items = append(items, item)
	}

	b.persist(ctx, items)
	return result{items: items}, nil
}

// SetQuantity replaces the row's quantity; zero deletes the row. Unknown
// product ids leave the cart untouched.
func (b *GuestBackend) SetQuantity(ctx context.Context, productID string, _, desired int, _ string) (result, error) {
	if desired < 0 {
		return result{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	items := b.store.Items(ctx)
	next := items[:0]
	changed := false
	for _, item := range items {
		if item.ID != productID {
			next = append(next, item)
			continue
		}
		changed = true
		if desired == 0 {
			continue
		}
		item.Quantity = desired
		next = append(next, item)
	}

	if changed {
		b.persist(ctx, next)
	}
	return result{items: next}, nil
}

func (b *GuestBackend) ApplyCoupon(ctx context.Context, _ string, _ []types.CartLineItem) (result, error) {
	return result{}, pkgerrors.New(pkgerrors.CodeValidation, "coupons require a signed-in customer")
}

func (b *GuestBackend) persist(ctx context.Context, items []types.CartLineItem) {
	if err := b.store.Replace(ctx, items); err != nil && b.logg != nil {
		b.logg.Warn(ctx, "persisting guest cart failed")
	}
}

// RemoteBackend drives the commerce API through the sync service. Mutations
// do not return the post-mutation cart, so each one is followed by a full
// refresh.
type RemoteBackend struct {
	sync       *cartsync.Service
	customerID string
}

func (b *RemoteBackend) Remote() bool { return true }

func (b *RemoteBackend) Load(ctx context.Context) (result, error) {
	snapshot, err := b.sync.FetchCart(ctx, b.customerID)
	if err != nil {
		return result{}, err
	}
	return result{items: snapshot.Items, snapshot: snapshot}, nil
}

func (b *RemoteBackend) Add(ctx context.Context, item types.CartLineItem, quantity int) (result, error) {
	if err := b.sync.AddItem(ctx, b.customerID, item.ID, quantity, item.VariantID); err != nil {
		return result{}, err
	}
	return b.Load(ctx)
}

func (b *RemoteBackend) SetQuantity(ctx context.Context, productID string, current, desired int, variantID string) (result, error) {
	if err := b.sync.ChangeQuantity(ctx, b.customerID, productID, current, desired, variantID); err != nil {
		return result{}, err
	}
	return b.Load(ctx)
}

func (b *RemoteBackend) ApplyCoupon(ctx context.Context, code string, prior []types.CartLineItem) (result, error) {
	snapshot, err := b.sync.ApplyCoupon(ctx, b.customerID, code, prior)
	if err != nil {
		return result{}, err
	}
	return result{items: snapshot.Items, snapshot: snapshot}, nil
}
