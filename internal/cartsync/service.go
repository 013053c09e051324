package cartsync

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ElisioMassango/chelevi-sub000/internal/commerce"
	pkgerrors "github.com/ElisioMassango/chelevi-sub000/pkg/errors"
	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
	"github.com/shopspring/decimal"
)

// CommerceAPI is the slice of the commerce client the sync service needs.
type CommerceAPI interface {
	AddToCart(ctx context.Context, customerID, productID string, quantity int, variantID string) (*commerce.AddToCartResult, error)
	UpdateQuantity(ctx context.Context, customerID, productID string, direction commerce.Direction, variantID string) error
	GetCart(ctx context.Context, customerID string) (*commerce.RawCart, error)
	ApplyCoupon(ctx context.Context, customerID, code string) (*commerce.RawCart, error)
}

// Service wraps the remote cart endpoints and normalizes their raw line-item
// records into CartLineItem values.
type Service struct {
	api       CommerceAPI
	assetHost string
	logg      *logger.Logger
}

// NewService builds the cart sync service.
func NewService(api CommerceAPI, assetHost string, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("commerce api required")
	}
	return &Service{
		api:       api,
		assetHost: strings.TrimRight(assetHost, "/"),
		logg:      logg,
	}, nil
}

// FetchCart pulls and normalizes the authoritative cart snapshot.
func (s *Service) FetchCart(ctx context.Context, customerID string) (*types.RemoteCartSnapshot, error) {
	raw, err := s.api.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.normalizeCart(raw), nil
}

// AddItem pushes one product into the remote cart. The API does not return
// the post-mutation cart, so callers refresh afterwards.
func (s *Service) AddItem(ctx context.Context, customerID, productID string, quantity int, variantID string) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	_, err := s.api.AddToCart(ctx, customerID, productID, quantity, variantID)
	return err
}

// ChangeQuantity turns an absolute desired quantity into the directional
// mutation the API expects, comparing against the line's current quantity.
// Zero is not supported remotely and reports a typed business gap instead of
// attempting deletion.
func (s *Service) ChangeQuantity(ctx context.Context, customerID, productID string, current, desired int, variantID string) error {
	if desired < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if desired == 0 {
		return pkgerrors.New(pkgerrors.CodeNotImplemented, "removing a cart line is not supported by the commerce api")
	}
	if desired == current {
		return nil
	}

	direction := commerce.DirectionIncrease
	if desired < current {
		direction = commerce.DirectionDecrease
	}
	return s.api.UpdateQuantity(ctx, customerID, productID, direction, variantID)
}

// ApplyCoupon applies the code and normalizes the recalculated cart. The
// response's product list governs the snapshot items: non-empty replaces,
// empty with a nonzero total-product count retains prior (the response is
// incomplete, not authoritative for item content), otherwise items clear.
func (s *Service) ApplyCoupon(ctx context.Context, customerID, code string, prior []types.CartLineItem) (*types.RemoteCartSnapshot, error) {
	raw, err := s.api.ApplyCoupon(ctx, customerID, code)
	if err != nil {
		return nil, err
	}

	snapshot := s.normalizeCart(raw)
	if len(raw.ProductList) == 0 && raw.CartTotalProduct > 0 {
		snapshot.Items = prior
	}
	return snapshot, nil
}

func (s *Service) normalizeCart(raw *commerce.RawCart) *types.RemoteCartSnapshot {
	snapshot := &types.RemoteCartSnapshot{
		Subtotal:      parseAmount(raw.SubTotal),
		TaxAmount:     parseAmount(raw.TaxAmount),
		FinalPrice:    parseAmount(raw.FinalPrice),
		TotalQuantity: raw.TotalQuantity,
	}
	if snapshot.TotalQuantity == 0 {
		snapshot.TotalQuantity = raw.CartTotalProduct
	}

	for _, line := range raw.ProductList {
		snapshot.Items = append(snapshot.Items, types.CartLineItem{
			ID:           string(line.ProductID),
			Name:         line.Name,
			UnitPrice:    parseAmount(line.Price),
			Image:        s.qualifyImage(line.Image),
			Quantity:     line.Qty,
			VariantLabel: line.VariantName,
			VariantID:    string(line.VariantID),
		})
	}

	if raw.CouponInfo != nil {
		coupon := &types.CouponInfo{
			Code:         raw.CouponInfo.CouponCode,
			DiscountType: raw.CouponInfo.DiscountType,
			FinalAmount:  parseAmount(raw.CouponInfo.FinalAmount),
			Applied:      raw.CouponInfo.IsApplied,
		}
		if coupon.Applied {
			coupon.DiscountAmount = parseAmount(raw.CouponInfo.DiscountAmount)
		}
		snapshot.Coupon = coupon
	}

	return snapshot
}

// qualifyImage prefixes relative asset paths with the configured asset host.
// Anything that fails to normalize is kept as-is.
func (s *Service) qualifyImage(path string) string {
	if path == "" || s.assetHost == "" {
		return path
	}
	parsed, err := url.Parse(path)
	if err != nil {
		return path
	}
	if parsed.IsAbs() {
		return path
	}
	return s.assetHost + "/" + strings.TrimLeft(path, "/")
}

// parseAmount reads a decimal amount serialized as a string. Parse failure is
// zero, never an error.
func parseAmount(value string) decimal.Decimal {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero
	}
	return parsed
}
