package controllers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qyve/storefront/api/responses"
	"github.com/qyve/storefront/pkg/config"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/logger"
)

const readinessTimeout = 3 * time.Second

const envHeader = "X-Qyve-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and redis in parallel.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := dbP.Ping(gctx); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable")
			}
			return nil
		})
		g.Go(func() error {
			if err := redisP.Ping(gctx); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable")
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
