package cartstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/ElisioMassango/chelevi-sub000/internal/cartsync"
	"github.com/ElisioMassango/chelevi-sub000/internal/guestcart"
	pkgerrors "github.com/ElisioMassango/chelevi-sub000/pkg/errors"
	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
	"github.com/shopspring/decimal"
)

// Store holds the reconciled cart state and is the only sanctioned way to
// mutate it. Operations dispatch to the guest or remote backend depending on
// the identity passed in; mutating operations are serialized end to end so
// two rapid UI actions cannot interleave their writes.
type Store struct {
	opMu sync.Mutex   // serializes mutating operations, network calls included
	mu   sync.RWMutex // guards state, gen and the migration markers

	state types.CartState
	gen   uint64

	guest    *guestcart.Store
	sync     *cartsync.Service
	migrator *cartsync.Migrator
	logg     *logger.Logger

	// migrated marks customers whose guest cart was already pushed this
	// login session; reset on logout.
	migrated map[string]struct{}
}

// Params carries the collaborators of the cart store.
type Params struct {
	Guest    *guestcart.Store
	Sync     *cartsync.Service
	Migrator *cartsync.Migrator
	Logger   *logger.Logger
}

// New builds the store and seeds its state from the guest cart, matching
// application start before any identity is known.
func New(ctx context.Context, params Params) (*Store, error) {
	if params.Guest == nil {
		return nil, fmt.Errorf("guest cart store required")
	}
	if params.Sync == nil {
		return nil, fmt.Errorf("cart sync service required")
	}
	if params.Migrator == nil {
		return nil, fmt.Errorf("migrator required")
	}

	s := &Store{
		guest:    params.Guest,
		sync:     params.Sync,
		migrator: params.Migrator,
		logg:     params.Logger,
		migrated: map[string]struct{}{},
	}
	s.state.Items = params.Guest.Items(ctx)
	s.state.Total = deriveTotal(s.state.Items, nil)
	return s, nil
}

// State returns a copy of the current cart state.
func (s *Store) State() types.CartState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := s.state
	state.Items = append([]types.CartLineItem(nil), s.state.Items...)
	return state
}

// AddItem merges the item into the cart. Guest mode merges locally and
// persists; remote mode pushes the add and refreshes the snapshot.
func (s *Store) AddItem(ctx context.Context, ident *types.Identity, item types.CartLineItem, quantity int) error {
	if item.ID == "" {
		return s.recordValidation("product id is required")
	}
	if quantity < 1 {
		return s.recordValidation("quantity must be at least 1")
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	backend := s.backendFor(ident)
	gen := s.beginOp(backend.Remote())
	res, err := backend.Add(ctx, item, quantity)
	return s.endOp(gen, res, err)
}

// RemoveItem removes the row for the product id.
func (s *Store) RemoveItem(ctx context.Context, ident *types.Identity, productID string) error {
	return s.UpdateQuantity(ctx, ident, productID, 0)
}

// UpdateQuantity sets an absolute quantity. Guest mode deletes the row on
// zero; remote mode turns the change into a directional mutation and rejects
// zero as unsupported.
func (s *Store) UpdateQuantity(ctx context.Context, ident *types.Identity, productID string, quantity int) error {
	if productID == "" {
		return s.recordValidation("product id is required")
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	current, variantID := s.lineFor(productID)

	backend := s.backendFor(ident)
	gen := s.beginOp(backend.Remote())
	res, err := backend.SetQuantity(ctx, productID, current, quantity, variantID)
	return s.endOp(gen, res, err)
}

// ApplyCoupon applies the code against the remote cart. Without an identity
// this fails locally before any network call.
func (s *Store) ApplyCoupon(ctx context.Context, ident *types.Identity, code string) error {
	if code == "" {
		return s.recordValidation("coupon code is required")
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	backend := s.backendFor(ident)
	gen := s.beginOp(backend.Remote())
	res, err := backend.ApplyCoupon(ctx, code, s.State().Items)
	return s.endOp(gen, res, err)
}

// Refresh is a no-op without an identity. With one, it first runs the
// guest-to-user migration if this customer has not been migrated this session
// and no snapshot is loaded yet, then fetches the authoritative snapshot.
func (s *Store) Refresh(ctx context.Context, ident *types.Identity) error {
	if ident == nil {
		return nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.shouldMigrate(ident.CustomerID) {
		s.migrator.Run(ctx, ident.CustomerID)
		s.markMigrated(ident.CustomerID)
	}

	backend := s.backendFor(ident)
	gen := s.beginOp(true)
	res, err := backend.Load(ctx)
	return s.endOp(gen, res, err)
}

// ClearCart resets the in-memory state and erases the guest store without
// touching the remote API. It serializes behind any in-flight mutating
// operation and bumps the generation, so a cleared cart cannot be repopulated
// by anything that was already underway.
func (s *Store) ClearCart(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.gen++
	s.state = types.CartState{IsOpen: s.state.IsOpen, Total: decimal.Zero}
	s.mu.Unlock()

	if err := s.guest.Clear(ctx); err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "erasing guest cart failed")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "erase guest cart")
	}
	return nil
}

// ToggleOpen flips the UI visibility flag and returns the new value.
func (s *Store) ToggleOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsOpen = !s.state.IsOpen
	return s.state.IsOpen
}

// Logout drops the remote snapshot and the migration markers but keeps the
// displayed items; the next refresh with a new identity starts a fresh
// session.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.migrated = map[string]struct{}{}
	s.state.Snapshot = nil
	s.state.Error = ""
	s.state.Total = deriveTotal(s.state.Items, nil)
}

func (s *Store) backendFor(ident *types.Identity) CartBackend {
	if ident == nil {
		return &GuestBackend{store: s.guest, logg: s.logg}
	}
	return &RemoteBackend{sync: s.sync, customerID: ident.CustomerID}
}

func (s *Store) shouldMigrate(customerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.Snapshot != nil {
		return false
	}
	_, done := s.migrated[customerID]
	return !done
}

func (s *Store) markMigrated(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.migrated[customerID] = struct{}{}
}

// beginOp opens the Loading window (remote operations only) and returns the
// generation the eventual result must match to be applied.
func (s *Store) beginOp(remote bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if remote {
		s.state.Loading = true
	}
	s.state.Error = ""
	return s.gen
}

// endOp closes the Loading window and either records the failure or applies
// the backend result. Results from a superseded generation are discarded.
func (s *Store) endOp(gen uint64, res result, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Loading = false
	if err != nil {
		s.state.Error = errorMessage(err)
		return err
	}
	if gen != s.gen {
		return nil
	}

	s.state.Items = res.items
	s.state.Snapshot = res.snapshot
	s.state.Total = deriveTotal(res.items, res.snapshot)
	return nil
}

func (s *Store) lineFor(productID string) (quantity int, variantID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.state.Items {
		if item.ID == productID {
			return item.Quantity, item.VariantID
		}
	}
	return 0, ""
}

func (s *Store) recordValidation(message string) error {
	err := pkgerrors.New(pkgerrors.CodeValidation, message)

	s.mu.Lock()
	s.state.Error = err.Message()
	s.mu.Unlock()
	return err
}

// deriveTotal is the single place the displayed total comes from: the
// snapshot's final price when one exists, otherwise the sum of line totals.
func deriveTotal(items []types.CartLineItem, snapshot *types.RemoteCartSnapshot) decimal.Decimal {
	if snapshot != nil {
		return snapshot.FinalPrice
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		if msg := typed.Message(); msg != "" {
			return msg
		}
		return pkgerrors.MetadataFor(typed.Code()).PublicMessage
	}
	return "operation failed"
}
