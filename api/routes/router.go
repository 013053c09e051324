package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ElisioMassango/chelevi-sub000/api/controllers"
	"github.com/ElisioMassango/chelevi-sub000/api/middleware"
	"github.com/ElisioMassango/chelevi-sub000/internal/cartstore"
	"github.com/ElisioMassango/chelevi-sub000/internal/pricing"
	"github.com/ElisioMassango/chelevi-sub000/pkg/config"
	"github.com/ElisioMassango/chelevi-sub000/pkg/db"
	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	GuestDB   db.Pinger
	Cache     db.Pinger
	CartStore *cartstore.Store
	Resolver  *pricing.Resolver
	Registry  *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.Identity(deps.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.GuestDB, deps.Cache))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", controllers.CartFetch(deps.CartStore, deps.Logger))
		r.Delete("/", controllers.CartClear(deps.CartStore, deps.Logger))
		r.Post("/items", controllers.CartAddItem(deps.CartStore, deps.Logger))
		r.Patch("/items/{productID}", controllers.CartUpdateQuantity(deps.CartStore, deps.Logger))
		r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.CartStore, deps.Logger))
		r.Post("/coupon", controllers.CartApplyCoupon(deps.CartStore, deps.Logger))
		r.Post("/toggle", controllers.CartToggle(deps.CartStore, deps.Logger))
	})

	r.Route("/api/v1/prices", func(r chi.Router) {
		r.Post("/resolve", controllers.PricesResolve(deps.Resolver, deps.Logger))
	})

	return r
}
