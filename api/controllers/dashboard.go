package controllers

import (
	"net/http"

	"github.com/qyve/storefront/api/responses"
	"github.com/qyve/storefront/api/validators"
	"github.com/qyve/storefront/internal/dashboard"
	"github.com/qyve/storefront/pkg/logger"
)

func AdminDashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("dashboard"))
			return
		}
		threshold, err := validators.ParseQueryInt(r, "low_stock_threshold", dashboard.DefaultLowStockThreshold, 0, maxStockThreshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		overview, err := svc.Overview(r.Context(), threshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}
