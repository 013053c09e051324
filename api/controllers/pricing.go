package controllers

import (
	"net/http"

	"github.com/ElisioMassango/chelevi-sub000/api/middleware"
	"github.com/ElisioMassango/chelevi-sub000/api/responses"
	"github.com/ElisioMassango/chelevi-sub000/api/validators"
	"github.com/ElisioMassango/chelevi-sub000/internal/pricing"
	pkgerrors "github.com/ElisioMassango/chelevi-sub000/pkg/errors"
	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
)

type resolvePricesRequest struct {
	Products []types.ProductSummary `json:"products" validate:"min=1,max=100,dive"`
}

// PricesResolve resolves displayable prices for a page of products.
func PricesResolve(resolver *pricing.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price resolver unavailable"))
			return
		}

		var payload resolvePricesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ident := middleware.IdentityFromContext(r.Context())
		resolved := resolver.ResolveAll(r.Context(), ident, payload.Products)

		responses.WriteSuccess(w, resolved)
	}
}
