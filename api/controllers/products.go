package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qyve/storefront/api/middleware"
	"github.com/qyve/storefront/api/responses"
	"github.com/qyve/storefront/api/validators"
	"github.com/qyve/storefront/internal/products"
	"github.com/qyve/storefront/pkg/logger"
)

type productRequest struct {
	Name        string                `json:"name" validate:"required,max=200"`
	Slug        string                `json:"slug,omitempty" validate:"max=200"`
	Description string                `json:"description,omitempty" validate:"max=5000"`
	Category    string                `json:"category" validate:"required,max=50"`
	Price       decimal.Decimal       `json:"price"`
	Images      []string              `json:"images,omitempty" validate:"max=20,dive,max=2048"`
	IsActive    *bool                 `json:"is_active,omitempty"`
	Colors      []productColorRequest `json:"colors,omitempty" validate:"dive"`
	Sizes       []productSizeRequest  `json:"sizes,omitempty" validate:"dive"`
}

type productColorRequest struct {
	Name string `json:"name" validate:"required,max=50"`
	Hex  string `json:"hex,omitempty" validate:"omitempty,hexcolor"`
}

type productSizeRequest struct {
	ID    *uuid.UUID `json:"id,omitempty"`
	Size  string     `json:"size" validate:"required,max=20"`
	SKU   string     `json:"sku,omitempty" validate:"max=64"`
	Color string     `json:"color,omitempty" validate:"max=50"`
	Stock int        `json:"stock" validate:"min=0"`
}

func (p productRequest) toInput() products.ProductInput {
	input := products.ProductInput{
		Name:        validators.SanitizeString(p.Name, 200),
		Slug:        strings.TrimSpace(p.Slug),
		Description: strings.TrimSpace(p.Description),
		Category:    strings.TrimSpace(p.Category),
		Price:       p.Price,
		Images:      p.Images,
		IsActive:    p.IsActive,
	}
	for _, c := range p.Colors {
		input.Colors = append(input.Colors, products.ColorInput{Name: c.Name, Hex: c.Hex})
	}
	for _, s := range p.Sizes {
		input.Sizes = append(input.Sizes, products.SizeInput{
			ID:    s.ID,
			Size:  s.Size,
			SKU:   s.SKU,
			Color: s.Color,
			Stock: s.Stock,
		})
	}
	return input
}

// ProductList serves both catalog listings. Inactive products are only shown
// when includeInactive is set, which the admin route does.
func ProductList(svc products.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListProducts(r.Context(), products.ListProductsInput{
			Category:        strings.TrimSpace(r.URL.Query().Get("category")),
			IncludeInactive: includeInactive,
			Params:          params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ProductDetail(svc products.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID, includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), middleware.EmailFromContext(r.Context()), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), productID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminProductDelete deactivates the product; order history keeps its rows.
func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": productID, "is_active": false})
	}
}
