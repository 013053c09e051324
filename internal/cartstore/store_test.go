package cartstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ElisioMassango/chelevi-sub000/internal/cartsync"
	"github.com/ElisioMassango/chelevi-sub000/internal/commerce"
	"github.com/ElisioMassango/chelevi-sub000/internal/guestcart"
	pkgerrors "github.com/ElisioMassango/chelevi-sub000/pkg/errors"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeCommerce struct {
	addCalls    []string
	updateCalls []string
	getCalls    int
	cart        *commerce.RawCart
	couponCart  *commerce.RawCart
	addErr      error
	updateErr   error
	getErr      error
	couponErr   error
}

func (f *fakeCommerce) AddToCart(ctx context.Context, customerID, productID string, quantity int, variantID string) (*commerce.AddToCartResult, error) {
	f.addCalls = append(f.addCalls, productID)
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &commerce.AddToCartResult{Count: len(f.addCalls)}, nil
}

func (f *fakeCommerce) UpdateQuantity(ctx context.Context, customerID, productID string, direction commerce.Direction, variantID string) error {
	f.updateCalls = append(f.updateCalls, productID+":"+string(direction))
	return f.updateErr
}

func (f *fakeCommerce) GetCart(ctx context.Context, customerID string) (*commerce.RawCart, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.cart == nil {
		return &commerce.RawCart{}, nil
	}
	return f.cart, nil
}

func (f *fakeCommerce) ApplyCoupon(ctx context.Context, customerID, code string) (*commerce.RawCart, error) {
	if f.couponErr != nil {
		return nil, f.couponErr
	}
	if f.couponCart == nil {
		return &commerce.RawCart{}, nil
	}
	return f.couponCart, nil
}

type fixture struct {
	store *Store
	guest *guestcart.Store
	api   *fakeCommerce
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	api := &fakeCommerce{}
	store, guest := newStoreWith(t, api)
	return &fixture{store: store, guest: guest, api: api}
}

func newStoreWith(t *testing.T, api cartsync.CommerceAPI) (*Store, *guestcart.Store) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "guest.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}

	guest, err := guestcart.NewStore(conn, nil)
	if err != nil {
		t.Fatalf("guest store: %v", err)
	}

	syncSvc, err := cartsync.NewService(api, "", nil)
	if err != nil {
		t.Fatalf("sync service: %v", err)
	}
	migrator, err := cartsync.NewMigrator(api, guest, nil)
	if err != nil {
		t.Fatalf("migrator: %v", err)
	}

	store, err := New(context.Background(), Params{
		Guest:    guest,
		Sync:     syncSvc,
		Migrator: migrator,
	})
	if err != nil {
		t.Fatalf("cart store: %v", err)
	}

	return store, guest
}

// gatedCommerce blocks GetCart until released so tests can interleave other
// operations with an in-flight refresh.
type gatedCommerce struct {
	entered chan struct{}
	release chan struct{}
}

func newGatedCommerce() *gatedCommerce {
	return &gatedCommerce{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (g *gatedCommerce) AddToCart(ctx context.Context, customerID, productID string, quantity int, variantID string) (*commerce.AddToCartResult, error) {
	return &commerce.AddToCartResult{Count: 1}, nil
}

func (g *gatedCommerce) UpdateQuantity(ctx context.Context, customerID, productID string, direction commerce.Direction, variantID string) error {
	return nil
}

func (g *gatedCommerce) GetCart(ctx context.Context, customerID string) (*commerce.RawCart, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	return &commerce.RawCart{
		ProductList:      []commerce.RawCartLine{{ProductID: "9", Price: "10.00", Qty: 1}},
		FinalPrice:       "10.00",
		CartTotalProduct: 1,
	}, nil
}

func (g *gatedCommerce) ApplyCoupon(ctx context.Context, customerID, code string) (*commerce.RawCart, error) {
	return &commerce.RawCart{}, nil
}

func testItem(id string, price int64) types.CartLineItem {
	return types.CartLineItem{ID: id, Name: "item " + id, UnitPrice: decimal.NewFromInt(price)}
}

func customer(id string) *types.Identity {
	return &types.Identity{CustomerID: id}
}

func TestGuestSumInvariant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.AddItem(ctx, nil, testItem("7", 10), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.store.AddItem(ctx, nil, testItem("9", 5), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.store.UpdateQuantity(ctx, nil, "9", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := f.store.State()
	expected := decimal.Zero
	for _, item := range state.Items {
		expected = expected.Add(item.LineTotal())
	}
	if !state.Total.Equal(expected) {
		t.Fatalf("total %s does not match sum of lines %s", state.Total, expected)
	}
	if !state.Total.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("expected total 35, got %s", state.Total)
	}
}

func TestGuestMergeOnRepeatedAdd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.AddItem(ctx, nil, testItem("7", 10), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.store.AddItem(ctx, nil, testItem("7", 10), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := f.store.State()
	if len(state.Items) != 1 {
		t.Fatalf("expected one merged row, got %d", len(state.Items))
	}
	if state.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", state.Items[0].Quantity)
	}
}

func TestGuestZeroQuantityRemoves(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.AddItem(ctx, nil, testItem("7", 10), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.store.UpdateQuantity(ctx, nil, "7", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if items := f.store.State().Items; len(items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(items))
	}
	if persisted := f.guest.Items(ctx); len(persisted) != 0 {
		t.Fatalf("expected empty persisted cart, got %d items", len(persisted))
	}
}

func TestRemoteZeroQuantityRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	err := f.store.UpdateQuantity(ctx, customer("c1"), "7", 0)
	if err == nil {
		t.Fatal("expected error for remote zero quantity")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotImplemented {
		t.Fatalf("unexpected error code: %v", err)
	}
	if len(f.api.updateCalls) != 0 {
		t.Fatalf("remote cart must stay untouched, got %d calls", len(f.api.updateCalls))
	}
	if f.store.State().Error == "" {
		t.Fatal("expected state-level error to be recorded")
	}
}

func TestRemoteAddFailureLeavesCartUnchanged(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.AddItem(ctx, nil, testItem("7", 10), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.api.addErr = pkgerrors.New(pkgerrors.CodeBusiness, "out of stock")
	err := f.store.AddItem(ctx, customer("c1"), testItem("9", 5), 1)
	if err == nil {
		t.Fatal("expected remote add to fail")
	}

	state := f.store.State()
	if len(state.Items) != 1 || state.Items[0].ID != "7" {
		t.Fatalf("cart must be unchanged after remote failure, got %+v", state.Items)
	}
	if state.Error != "out of stock" {
		t.Fatalf("expected server message verbatim, got %q", state.Error)
	}
	if state.Loading {
		t.Fatal("loading must be cleared after a failed operation")
	}
}

func TestMigrationRunsAtMostOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := f.store.AddItem(ctx, nil, testItem(id, 10), 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := f.store.Refresh(ctx, customer("c1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.api.addCalls) != 3 {
		t.Fatalf("expected 3 migration calls, got %d", len(f.api.addCalls))
	}

	if err := f.store.Refresh(ctx, customer("c1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.api.addCalls) != 3 {
		t.Fatalf("second refresh must not re-migrate, got %d calls", len(f.api.addCalls))
	}

	if persisted := f.guest.Items(ctx); len(persisted) != 0 {
		t.Fatalf("guest store must be cleared after migration, got %d items", len(persisted))
	}
}

func TestMigrationSkippedWhenGuestEmpty(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.Refresh(ctx, customer("c1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.api.addCalls) != 0 {
		t.Fatalf("expected no migration calls, got %d", len(f.api.addCalls))
	}
	if f.api.getCalls != 1 {
		t.Fatalf("expected one cart fetch, got %d", f.api.getCalls)
	}
}

func TestRefreshWithoutIdentityIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	if err := f.store.Refresh(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.api.getCalls != 0 {
		t.Fatalf("guest refresh must not call the network, got %d calls", f.api.getCalls)
	}
}

func TestCouponRequiresIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	err := f.store.ApplyCoupon(context.Background(), nil, "SAVE10")
	if err == nil {
		t.Fatal("expected error applying coupon as guest")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestCouponEmptyListRetainsItems(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.api.cart = &commerce.RawCart{
		ProductList: []commerce.RawCartLine{
			{ProductID: "1", Price: "10.00", Qty: 1},
			{ProductID: "2", Price: "5.00", Qty: 2},
		},
		FinalPrice:       "20.00",
		CartTotalProduct: 2,
	}
	if err := f.store.Refresh(ctx, customer("c1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.api.couponCart = &commerce.RawCart{
		ProductList:      nil,
		CartTotalProduct: 4,
		FinalPrice:       "16.00",
	}
	if err := f.store.ApplyCoupon(ctx, customer("c1"), "SAVE20"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := f.store.State()
	if len(state.Items) != 2 {
		t.Fatalf("prior items must be retained, got %d", len(state.Items))
	}
	if state.Items[0].ID != "1" || state.Items[1].ID != "2" {
		t.Fatalf("prior items changed: %+v", state.Items)
	}
	if !state.Total.Equal(decimal.RequireFromString("16.00")) {
		t.Fatalf("total must follow the recalculated snapshot, got %s", state.Total)
	}
}

func TestClearCartErasesGuestStore(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.AddItem(ctx, nil, testItem("7", 10), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.store.ClearCart(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := f.store.State()
	if len(state.Items) != 0 || !state.Total.IsZero() {
		t.Fatalf("expected empty state, got %+v", state)
	}
	if persisted := f.guest.Items(ctx); len(persisted) != 0 {
		t.Fatalf("guest store must be erased, got %d items", len(persisted))
	}
	if f.api.getCalls != 0 || len(f.api.updateCalls) != 0 {
		t.Fatal("clear must not call the remote api")
	}
}

func TestToggleOpenFlips(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	if !f.store.ToggleOpen() {
		t.Fatal("expected first toggle to open")
	}
	if f.store.ToggleOpen() {
		t.Fatal("expected second toggle to close")
	}
}

func TestLogoutKeepsItemsDropsSnapshot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.api.cart = &commerce.RawCart{
		ProductList:      []commerce.RawCartLine{{ProductID: "1", Price: "10.00", Qty: 1}},
		FinalPrice:       "10.00",
		CartTotalProduct: 1,
	}
	if err := f.store.Refresh(ctx, customer("c1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.store.Logout()

	state := f.store.State()
	if state.Snapshot != nil {
		t.Fatal("snapshot must be dropped on logout")
	}
	if len(state.Items) != 1 {
		t.Fatalf("items must survive logout, got %d", len(state.Items))
	}
	if !state.Total.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("total must be re-derived from items, got %s", state.Total)
	}
}

func TestLogoutAllowsNextSessionMigration(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.store.AddItem(ctx, nil, testItem("a", 10), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.store.Refresh(ctx, customer("c1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.api.addCalls) != 1 {
		t.Fatalf("expected 1 migration call, got %d", len(f.api.addCalls))
	}

	f.store.Logout()

	if err := f.store.AddItem(ctx, nil, testItem("b", 5), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.store.Refresh(ctx, customer("c1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.api.addCalls) != 2 {
		t.Fatalf("new session must migrate the new guest item, got %d calls", len(f.api.addCalls))
	}
}

func TestLogoutDiscardsInFlightSnapshot(t *testing.T) {
	t.Parallel()

	gated := newGatedCommerce()
	store, _ := newStoreWith(t, gated)

	done := make(chan error, 1)
	go func() { done <- store.Refresh(context.Background(), customer("c1")) }()
	<-gated.entered

	store.Logout()
	close(gated.release)

	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := store.State()
	if state.Snapshot != nil {
		t.Fatal("snapshot fetched for the superseded session must be discarded")
	}
	if len(state.Items) != 0 {
		t.Fatalf("stale items must not be applied, got %+v", state.Items)
	}
	if !state.Total.IsZero() {
		t.Fatalf("total must not pick up the stale snapshot, got %s", state.Total)
	}
}

func TestClearCartSupersedesInFlightRefresh(t *testing.T) {
	t.Parallel()

	gated := newGatedCommerce()
	store, guest := newStoreWith(t, gated)
	ctx := context.Background()

	refreshDone := make(chan error, 1)
	go func() { refreshDone <- store.Refresh(ctx, customer("c1")) }()
	<-gated.entered

	clearDone := make(chan error, 1)
	go func() { clearDone <- store.ClearCart(ctx) }()
	close(gated.release)

	if err := <-refreshDone; err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := <-clearDone; err != nil {
		t.Fatalf("clear: %v", err)
	}

	state := store.State()
	if len(state.Items) != 0 || state.Snapshot != nil {
		t.Fatalf("cleared cart must not be repopulated, got %+v", state)
	}
	if !state.Total.IsZero() {
		t.Fatalf("expected zero total, got %s", state.Total)
	}
	if persisted := guest.Items(ctx); len(persisted) != 0 {
		t.Fatalf("guest store must stay erased, got %d items", len(persisted))
	}
}

func TestErrorRecoversOnNextOperation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.api.getErr = errors.New("connection refused")
	if err := f.store.Refresh(ctx, customer("c1")); err == nil {
		t.Fatal("expected refresh failure")
	}
	if f.store.State().Error == "" {
		t.Fatal("expected recorded error")
	}

	f.api.getErr = nil
	if err := f.store.Refresh(ctx, customer("c1")); err != nil {
		t.Fatalf("retry must succeed: %v", err)
	}
	if f.store.State().Error != "" {
		t.Fatal("error must clear on successful retry")
	}
}
