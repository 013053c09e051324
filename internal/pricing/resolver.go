package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/ElisioMassango/chelevi-sub000/internal/commerce"
	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
	"github.com/shopspring/decimal"
)

// placeholderPrice is what the UI shows for a variant-bearing product when
// every price source is unavailable, so the grid never renders zero.
var placeholderPrice = decimal.NewFromInt(100)

const guestScope = "guest"

// CatalogAPI is the slice of the commerce client the resolver needs.
type CatalogAPI interface {
	GetProductDetail(ctx context.Context, productID string) (*commerce.RawProductDetail, error)
	GetProductVariants(ctx context.Context, customerID, productID string) ([]types.VariantGroup, error)
	GetVariantPrice(ctx context.Context, customerID, productID string, selection map[string]string, quantity int) (*commerce.RawVariantPrice, error)
}

// Resolver turns a product record into a single displayable price via an
// ordered fallback chain. It never returns an error: every network failure is
// treated as "source unavailable" and the chain falls through.
type Resolver struct {
	api   CatalogAPI
	cache *Cache
	logg  *logger.Logger
}

// NewResolver builds the variant price resolver. cache may be nil.
func NewResolver(api CatalogAPI, cache *Cache, logg *logger.Logger) (*Resolver, error) {
	if api == nil {
		return nil, fmt.Errorf("catalog api required")
	}
	return &Resolver{api: api, cache: cache, logg: logg}, nil
}

// Resolve returns the displayable price for the product. HasVariants=true
// signals that the price shown is representative, not a chosen-variant price.
func (r *Resolver) Resolve(ctx context.Context, ident *types.Identity, product types.ProductSummary) types.VariantPriceInfo {
	if !product.HasVariants {
		return r.directPrice(product)
	}

	scope := guestScope
	if ident != nil {
		scope = ident.CustomerID
	}
	if cached, ok := r.cache.Get(ctx, scope, product.ID); ok {
		return cached
	}

	info := r.resolveVariant(ctx, ident, product)
	r.cache.Put(ctx, scope, product.ID, info)
	return info
}

// directPrice handles products without a variant axis: their record already
// carries the real price.
func (r *Resolver) directPrice(product types.ProductSummary) types.VariantPriceInfo {
	info := types.VariantPriceInfo{HasVariants: false}

	price, priceOK := parsePrice(product.Price)
	final, finalOK := parsePrice(product.FinalPrice)

	switch {
	case priceOK && finalOK && !final.Equal(price):
		info.Price = price
		info.SalePrice = &final
	case priceOK:
		info.Price = price
	case finalOK:
		info.Price = final
	}
	return info
}

func (r *Resolver) resolveVariant(ctx context.Context, ident *types.Identity, product types.ProductSummary) types.VariantPriceInfo {
	if ident != nil {
		if info, ok := r.representativePrice(ctx, ident.CustomerID, product.ID); ok {
			return info
		}
		// The authenticated endpoint is unavailable, continue with the
		// guest sources.
	}

	info := types.VariantPriceInfo{HasVariants: true}

	if detail, err := r.api.GetProductDetail(ctx, product.ID); err == nil && detail != nil {
		if price, ok := firstPrice(detail.Price, detail.SalePrice); ok {
			info.Price = price
			return info
		}
		if price, ok := firstPrice(detail.OriginalPrice, detail.ProductPrice); ok {
			info.Price = price
			return info
		}
	} else if err != nil && r.logg != nil {
		r.logg.Warn(r.logg.WithProductID(ctx, product.ID), "product detail unavailable for pricing")
	}

	if price, ok := firstPrice(product.Price, product.FinalPrice); ok {
		info.Price = price
		return info
	}

	info.Price = placeholderPrice
	return info
}

// representativePrice fetches the variant structure, picks the first option
// of every group as the representative selection, and prices that combination.
func (r *Resolver) representativePrice(ctx context.Context, customerID, productID string) (types.VariantPriceInfo, bool) {
	groups, err := r.api.GetProductVariants(ctx, customerID, productID)
	if err != nil || len(groups) == 0 {
		return types.VariantPriceInfo{}, false
	}

	selection := make(map[string]string, len(groups))
	for _, group := range groups {
		if len(group.Options) == 0 {
			return types.VariantPriceInfo{}, false
		}
		selection[group.Name] = group.Options[0].ID
	}

	raw, err := r.api.GetVariantPrice(ctx, customerID, productID, selection, 1)
	if err != nil || raw == nil {
		return types.VariantPriceInfo{}, false
	}

	price, ok := parsePrice(raw.Price)
	if !ok {
		return types.VariantPriceInfo{}, false
	}

	info := types.VariantPriceInfo{
		Price:            price,
		HasVariants:      true,
		Stock:            raw.ProductStock,
		StockOrderStatus: raw.StockOrderStatus,
	}
	if sale, ok := parsePrice(raw.SalePrice); ok && !sale.Equal(price) {
		info.SalePrice = &sale
	}
	return info, true
}

func firstPrice(candidates ...string) (decimal.Decimal, bool) {
	for _, candidate := range candidates {
		if price, ok := parsePrice(candidate); ok {
			return price, true
		}
	}
	return decimal.Zero, false
}

// parsePrice accepts a positive decimal string; empty, malformed, and
// non-positive values all count as "no price here".
func parsePrice(value string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, false
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil || parsed.Sign() <= 0 {
		return decimal.Zero, false
	}
	return parsed, true
}
