package pricing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ElisioMassango/chelevi-sub000/internal/commerce"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
)

// countingCatalog tracks how many detail lookups are in flight at once.
type countingCatalog struct {
	inflight    atomic.Int32
	maxInflight atomic.Int32
	mu          sync.Mutex
	order       []string
}

func (c *countingCatalog) GetProductDetail(ctx context.Context, productID string) (*commerce.RawProductDetail, error) {
	current := c.inflight.Add(1)
	for {
		max := c.maxInflight.Load()
		if current <= max || c.maxInflight.CompareAndSwap(max, current) {
			break
		}
	}

	c.mu.Lock()
	c.order = append(c.order, productID)
	c.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	c.inflight.Add(-1)
	return &commerce.RawProductDetail{Price: "10.00"}, nil
}

func (c *countingCatalog) GetProductVariants(ctx context.Context, customerID, productID string) ([]types.VariantGroup, error) {
	return nil, nil
}

func (c *countingCatalog) GetVariantPrice(ctx context.Context, customerID, productID string, selection map[string]string, quantity int) (*commerce.RawVariantPrice, error) {
	return nil, nil
}

func TestResolveAllBoundsConcurrency(t *testing.T) {
	t.Parallel()

	catalog := &countingCatalog{}
	resolver := newTestResolver(t, catalog)

	products := make([]types.ProductSummary, 12)
	for i := range products {
		products[i] = types.ProductSummary{ID: fmt.Sprintf("p%d", i), HasVariants: true}
	}

	out := resolver.ResolveAll(context.Background(), nil, products)

	if len(out) != 12 {
		t.Fatalf("expected 12 resolved prices, got %d", len(out))
	}
	for _, product := range products {
		info, ok := out[product.ID]
		if !ok {
			t.Fatalf("missing result for %s", product.ID)
		}
		if info.Price.Sign() <= 0 {
			t.Fatalf("product %s resolved to non-positive price %s", product.ID, info.Price)
		}
	}
	if max := catalog.maxInflight.Load(); max > batchSize {
		t.Fatalf("concurrency exceeded the batch size: %d in flight", max)
	}
}

func TestResolveAllGroupsAreSequential(t *testing.T) {
	t.Parallel()

	catalog := &countingCatalog{}
	resolver := newTestResolver(t, catalog)

	products := make([]types.ProductSummary, 8)
	for i := range products {
		products[i] = types.ProductSummary{ID: fmt.Sprintf("p%d", i), HasVariants: true}
	}

	resolver.ResolveAll(context.Background(), nil, products)

	// The first five ids must all appear before any of the last three.
	firstWave := map[string]bool{"p0": true, "p1": true, "p2": true, "p3": true, "p4": true}
	for i, id := range catalog.order[:5] {
		if !firstWave[id] {
			t.Fatalf("position %d: %s started before the first wave finished", i, id)
		}
	}
}

func TestResolveAllEmptyInput(t *testing.T) {
	t.Parallel()

	resolver := newTestResolver(t, &countingCatalog{})

	out := resolver.ResolveAll(context.Background(), nil, nil)
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %d entries", len(out))
	}
}
