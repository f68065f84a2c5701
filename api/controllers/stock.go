package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/qyve/storefront/api/middleware"
	"github.com/qyve/storefront/api/responses"
	"github.com/qyve/storefront/api/validators"
	"github.com/qyve/storefront/internal/ledger"
	"github.com/qyve/storefront/pkg/enums"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/logger"
)

const maxStockThreshold = 100000

type stockAdjustRequest struct {
	SizeID    uuid.UUID `json:"size_id" validate:"required"`
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
	Type      string    `json:"type" validate:"required"`
	Note      string    `json:"note,omitempty" validate:"max=500"`
}

// StockAdjust records an admin correction. Quantity is a magnitude for IN and
// OUT and a signed delta for ADJUST.
func StockAdjust(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("ledger"))
			return
		}
		var payload stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movementType, err := enums.ParseStockMovementType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "type must be IN, OUT or ADJUST"))
			return
		}
		movement, err := svc.Adjust(r.Context(), ledger.AdjustInput{
			ProductSizeID: payload.SizeID,
			ProductID:     payload.ProductID,
			Quantity:      payload.Quantity,
			Type:          movementType,
			Note:          validators.SanitizeString(payload.Note, 500),
			ActorEmail:    middleware.EmailFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ledger.NewMovementDTO(*movement))
	}
}

func StockList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("ledger"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var filter ledger.StockFilter
		if strings.TrimSpace(r.URL.Query().Get("low_stock_threshold")) != "" {
			threshold, err := validators.ParseQueryInt(r, "low_stock_threshold", 0, 0, maxStockThreshold)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.LowStockThreshold = &threshold
		}
		if filter.ProductID, err = validators.ParseOptionalUUID(r, "product_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListStock(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func StockHistory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("ledger"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var filter ledger.HistoryFilter
		if filter.ProductID, err = validators.ParseOptionalUUID(r, "product_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.ProductSizeID, err = validators.ParseOptionalUUID(r, "size_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.History(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
