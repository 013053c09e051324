package pricing

import (
	"context"
	"sync"

	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
	"golang.org/x/sync/errgroup"
)

// batchSize bounds how many price lookups are in flight while a product grid
// renders.
const batchSize = 5

// ResolveAll resolves prices for many products: fixed-size groups run
// concurrently within themselves and strictly one after another across
// groups. The result maps product id to its resolved price.
func (r *Resolver) ResolveAll(ctx context.Context, ident *types.Identity, products []types.ProductSummary) map[string]types.VariantPriceInfo {
	out := make(map[string]types.VariantPriceInfo, len(products))
	var mu sync.Mutex

	for start := 0; start < len(products); start += batchSize {
		end := start + batchSize
		if end > len(products) {
			end = len(products)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for _, product := range products[start:end] {
			product := product
			group.Go(func() error {
				info := r.Resolve(groupCtx, ident, product)
				mu.Lock()
				out[product.ID] = info
				mu.Unlock()
				return nil
			})
		}
		// Resolve never errors, Wait only synchronizes the wave.
		_ = group.Wait()
	}

	return out
}
