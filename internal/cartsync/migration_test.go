package cartsync

import (
	"context"
	"errors"
	"testing"

	"github.com/ElisioMassango/chelevi-sub000/internal/commerce"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
	"github.com/shopspring/decimal"
)

type stubGuest struct {
	items   []types.CartLineItem
	cleared bool
}

func (s *stubGuest) Items(ctx context.Context) []types.CartLineItem {
	if s.cleared {
		return nil
	}
	return s.items
}

func (s *stubGuest) Clear(ctx context.Context) error {
	s.cleared = true
	return nil
}

type recordingAdder struct {
	calls   []string
	failFor map[string]error
}

func (r *recordingAdder) AddToCart(ctx context.Context, customerID, productID string, quantity int, variantID string) (*commerce.AddToCartResult, error) {
	r.calls = append(r.calls, productID)
	if err, ok := r.failFor[productID]; ok {
		return nil, err
	}
	return &commerce.AddToCartResult{Count: len(r.calls)}, nil
}

func guestItems(ids ...string) []types.CartLineItem {
	items := make([]types.CartLineItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, types.CartLineItem{ID: id, Quantity: 1, UnitPrice: decimal.NewFromInt(1)})
	}
	return items
}

func TestMigrationSequentialOrder(t *testing.T) {
	t.Parallel()

	adder := &recordingAdder{}
	guest := &stubGuest{items: guestItems("a", "b", "c")}
	migrator, err := NewMigrator(adder, guest, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	migrator.Run(context.Background(), "c1")

	if len(adder.calls) != 3 {
		t.Fatalf("expected 3 add calls, got %d", len(adder.calls))
	}
	for i, want := range []string{"a", "b", "c"} {
		if adder.calls[i] != want {
			t.Fatalf("call %d: expected %s, got %s", i, want, adder.calls[i])
		}
	}
	if !guest.cleared {
		t.Fatal("expected guest store cleared after migration")
	}
}

func TestMigrationContinuesPastFailures(t *testing.T) {
	t.Parallel()

	adder := &recordingAdder{failFor: map[string]error{"b": errors.New("boom")}}
	guest := &stubGuest{items: guestItems("a", "b", "c")}
	migrator, err := NewMigrator(adder, guest, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	migrator.Run(context.Background(), "c1")

	if len(adder.calls) != 3 {
		t.Fatalf("all items must be attempted, got %d calls", len(adder.calls))
	}
	if !guest.cleared {
		t.Fatal("guest store must be cleared even after partial failure")
	}
}

func TestMigrationEmptyGuestIsNoop(t *testing.T) {
	t.Parallel()

	adder := &recordingAdder{}
	guest := &stubGuest{}
	migrator, err := NewMigrator(adder, guest, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	migrator.Run(context.Background(), "c1")

	if len(adder.calls) != 0 {
		t.Fatalf("expected no add calls, got %d", len(adder.calls))
	}
	if guest.cleared {
		t.Fatal("empty guest store must not be cleared")
	}
}
