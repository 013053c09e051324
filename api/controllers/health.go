package controllers

import (
	"context"
	"net/http"

	"github.com/ElisioMassango/chelevi-sub000/api/responses"
	"github.com/ElisioMassango/chelevi-sub000/pkg/config"
	pkgerrors "github.com/ElisioMassango/chelevi-sub000/pkg/errors"
	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Chelevi-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the guest store (and redis, when configured) is
// reachable.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Chelevi-Env", cfg.App.Env)

		for _, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "dependency not ready"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
