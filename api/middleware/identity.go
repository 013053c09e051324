package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
)

// customerIDHeader is set by the upstream auth layer once a customer has
// signed in; an absent header means guest mode.
const customerIDHeader = "X-Customer-Id"

type identityCtxKey struct{}

// Identity lifts the authenticated customer, if any, into the request
// context. The engine itself never reads ambient identity; handlers pass the
// value into every call explicitly.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customerID := strings.TrimSpace(r.Header.Get(customerIDHeader))
			if customerID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityCtxKey{}, &types.Identity{CustomerID: customerID})
			if logg != nil {
				ctx = logg.WithCustomerID(ctx, customerID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the authenticated customer or nil for guests.
func IdentityFromContext(ctx context.Context) *types.Identity {
	if ident, ok := ctx.Value(identityCtxKey{}).(*types.Identity); ok {
		return ident
	}
	return nil
}
