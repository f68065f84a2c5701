package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/qyve/storefront/api/responses"
	"github.com/qyve/storefront/internal/sizechart"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/logger"
)

func SizeChart(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := sizechart.ParseCategory(r.URL.Query().Get("category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		chart, err := sizechart.Get(category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, chart)
	}
}

func SizeRecommend(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := sizechart.ParseCategory(r.URL.Query().Get("category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var m sizechart.Measurements
		for key, dest := range map[string]*float64{
			"height_cm": &m.HeightCM,
			"weight_kg": &m.WeightKG,
			"foot_cm":   &m.FootCM,
		} {
			if *dest, err = queryFloat(r, key); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		rec, err := sizechart.Recommend(category, m)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rec)
	}
}

// queryFloat returns 0 for an absent parameter.
func queryFloat(r *http.Request, key string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a positive number").
			WithDetails(map[string]any{"field": key})
	}
	return v, nil
}
