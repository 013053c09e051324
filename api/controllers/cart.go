package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ElisioMassango/chelevi-sub000/api/middleware"
	"github.com/ElisioMassango/chelevi-sub000/api/responses"
	"github.com/ElisioMassango/chelevi-sub000/api/validators"
	"github.com/ElisioMassango/chelevi-sub000/internal/cartstore"
	pkgerrors "github.com/ElisioMassango/chelevi-sub000/pkg/errors"
	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
)

type addItemRequest struct {
	ID           string          `json:"id" validate:"required"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Image        string          `json:"image"`
	Quantity     int             `json:"quantity" validate:"omitempty,min=1"`
	VariantLabel string          `json:"variant_label"`
	VariantID    string          `json:"variant_id"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// CartFetch returns the current cart state, refreshing from the commerce API
// first when a customer is signed in.
func CartFetch(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		ident := middleware.IdentityFromContext(r.Context())
		if err := store.Refresh(r.Context(), ident); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store.State())
	}
}

// CartAddItem adds (or merges) one product into the cart.
func CartAddItem(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity := payload.Quantity
		if quantity == 0 {
			quantity = 1
		}

		item := types.CartLineItem{
			ID:           payload.ID,
			Name:         payload.Name,
			UnitPrice:    payload.UnitPrice,
			Image:        payload.Image,
			VariantLabel: payload.VariantLabel,
			VariantID:    payload.VariantID,
		}

		ident := middleware.IdentityFromContext(r.Context())
		if err := store.AddItem(r.Context(), ident, item, quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store.State())
	}
}

// CartUpdateQuantity sets an absolute quantity for one cart line.
func CartUpdateQuantity(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		productID := chi.URLParam(r, "productID")

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ident := middleware.IdentityFromContext(r.Context())
		if err := store.UpdateQuantity(r.Context(), ident, productID, *payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store.State())
	}
}

// CartRemoveItem drops one cart line.
func CartRemoveItem(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		productID := chi.URLParam(r, "productID")

		ident := middleware.IdentityFromContext(r.Context())
		if err := store.RemoveItem(r.Context(), ident, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store.State())
	}
}

// CartApplyCoupon applies a coupon code to the remote cart.
func CartApplyCoupon(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		var payload applyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ident := middleware.IdentityFromContext(r.Context())
		if err := store.ApplyCoupon(r.Context(), ident, payload.Code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store.State())
	}
}

// CartClear resets the cart and erases the guest store.
func CartClear(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		if err := store.ClearCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store.State())
	}
}

// CartToggle flips the cart drawer visibility flag.
func CartToggle(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		responses.WriteSuccess(w, map[string]bool{"is_open": store.ToggleOpen()})
	}
}
