package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qyve/storefront/pkg/db"
	"github.com/qyve/storefront/pkg/db/models"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
)

// Service exposes the signed-in buyer's cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*View, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error)
}

// View is the cart as returned to the buyer.
type View struct {
	ID       *uuid.UUID      `json:"id,omitempty"`
	Items    []ItemDTO       `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type ItemDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     *uuid.UUID      `json:"product_id,omitempty"`
	ProductSizeID uuid.UUID       `json:"product_size_id"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Size          string          `json:"size"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
}

type AddItemInput struct {
	ProductSizeID uuid.UUID
	Quantity      int
}

type service struct {
	repo  CartRepository
	tx    txRunner
	sizes sizeLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, sizes sizeLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if sizes == nil {
		return nil, fmt.Errorf("size loader required")
	}
	return &service{repo: repo, tx: tx, sizes: sizes}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &View{Items: []ItemDTO{}, Subtotal: decimal.Zero}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return newView(cart), nil
}

// AddItem puts a size in the cart, merging with an existing line for the
// same size. Name, image and price come from the catalog.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*View, error) {
	if input.ProductSizeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_size_id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	size, product, err := s.sizes.FindSizeWithProduct(ctx, input.ProductSizeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product size not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product size")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
	}

	cart, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindItemBySize(ctx, cart.ID, size.ID)
		switch {
		case err == nil:
			qty := existing.Quantity + input.Quantity
			if qty > size.Stock {
				return insufficientStock(size, qty)
			}
			return repo.UpdateItemQuantity(ctx, existing.ID, qty)
		case errors.Is(err, gorm.ErrRecordNotFound):
			if input.Quantity > size.Stock {
				return insufficientStock(size, input.Quantity)
			}
			productID := product.ID
			image := ""
			if len(product.Images) > 0 {
				image = product.Images[0]
			}
			_, err := repo.CreateItem(ctx, &models.CartItem{
				CartID:        cart.ID,
				ProductID:     &productID,
				ProductSizeID: size.ID,
				Name:          product.Name,
				Image:         image,
				Size:          size.Size,
				UnitPrice:     product.Price,
				Quantity:      input.Quantity,
			})
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, asServiceError(err, "add cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	cart, err := s.activeCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	size, _, err := s.sizes.FindSizeWithProduct(ctx, item.ProductSizeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product size not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product size")
	}
	if quantity > size.Stock {
		return nil, insufficientStock(size, quantity)
	}
	if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error) {
	cart, err := s.activeCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	removed, err := s.repo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	if removed == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Get(ctx, userID)
}

func (s *service) activeCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

// ensureCart returns the active cart, creating one on first use. A concurrent
// create loses on the one-active-cart index and re-reads the winner.
func (s *service) ensureCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	owner := userID
	cart, err = s.repo.Create(ctx, &models.Cart{UserID: &owner})
	if err == nil {
		return cart, nil
	}
	if db.IsUniqueViolation(err, "uq_carts_active_user") {
		if cart, err := s.repo.FindActiveByUser(ctx, userID); err == nil {
			return cart, nil
		}
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
}

func newView(cart *models.Cart) *View {
	id := cart.ID
	subtotal := decimal.Zero
	items := make([]ItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, ItemDTO{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductSizeID: item.ProductSizeID,
			Name:          item.Name,
			Image:         item.Image,
			Size:          item.Size,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
		})
	}
	return &View{ID: &id, Items: items, Subtotal: subtotal.Round(2)}
}

func insufficientStock(size *models.ProductSize, requested int) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").WithDetails(map[string]any{
		"product_size_id": size.ID,
		"requested":       requested,
		"available":       size.Stock,
	})
}

func asServiceError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
