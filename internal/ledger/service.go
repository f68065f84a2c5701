package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/pagination"
)

// Service defines the admin stock operations.
type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (*models.StockMovement, error)
	ListStock(ctx context.Context, filter StockFilter, params pagination.Params) (pagination.Page[StockRow], error)
	History(ctx context.Context, filter HistoryFilter, params pagination.Params) (pagination.Page[MovementDTO], error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AdjustInput is an admin stock correction. Quantity is a magnitude for IN and
// OUT and a signed delta for ADJUST.
type AdjustInput struct {
	ProductSizeID uuid.UUID
	ProductID     uuid.UUID
	Quantity      int
	Type          enums.StockMovementType
	Note          string
	ActorEmail    string
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Delta converts an adjustment into the signed stock change it applies.
func Delta(movementType enums.StockMovementType, quantity int) (int, error) {
	magnitude := quantity
	if magnitude < 0 {
		magnitude = -magnitude
	}
	switch movementType {
	case enums.StockMovementIn:
		return magnitude, nil
	case enums.StockMovementOut:
		return -magnitude, nil
	case enums.StockMovementAdjust:
		return quantity, nil
	default:
		return 0, fmt.Errorf("invalid movement type %q", movementType)
	}
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.StockMovement, error) {
	if input.ProductSizeID == uuid.Nil || input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_id and product_id are required")
	}
	if input.Quantity == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-zero")
	}
	delta, err := Delta(input.Type, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "type must be IN, OUT or ADJUST")
	}

	movement := &models.StockMovement{
		ProductID:     input.ProductID,
		ProductSizeID: input.ProductSizeID,
		Delta:         delta,
		Type:          input.Type,
		Note:          strings.TrimSpace(input.Note),
	}
	if email := strings.TrimSpace(input.ActorEmail); email != "" {
		movement.ActorEmail = &email
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		balance, err := repo.ApplyDelta(ctx, input.ProductSizeID, input.ProductID, delta)
		if err != nil {
			return err
		}
		movement.BalanceAfter = balance
		return repo.InsertMovement(ctx, movement)
	})
	switch {
	case err == nil:
		return movement, nil
	case errors.Is(err, ErrSizeNotFound):
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product size not found")
	case errors.Is(err, ErrInsufficientStock):
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "stock cannot go below zero").
			WithDetails(map[string]any{"delta": delta})
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply stock adjustment")
	}
}

func (s *service) ListStock(ctx context.Context, filter StockFilter, params pagination.Params) (pagination.Page[StockRow], error) {
	if filter.LowStockThreshold != nil && *filter.LowStockThreshold < 0 {
		return pagination.Page[StockRow]{}, pkgerrors.New(pkgerrors.CodeValidation, "low_stock_threshold must be non-negative")
	}
	rows, offset, err := s.repo.ListStock(ctx, filter, params)
	if err != nil {
		return pagination.Page[StockRow]{}, listError(err, "list stock")
	}
	return pagination.BuildOffset(rows, params.Limit, offset), nil
}

func (s *service) History(ctx context.Context, filter HistoryFilter, params pagination.Params) (pagination.Page[MovementDTO], error) {
	rows, err := s.repo.ListHistory(ctx, filter, params)
	if err != nil {
		return pagination.Page[MovementDTO]{}, listError(err, "list stock history")
	}
	page := pagination.Build(rows, params.Limit, func(m models.StockMovement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	out := pagination.Page[MovementDTO]{Items: make([]MovementDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, m := range page.Items {
		out.Items = append(out.Items, NewMovementDTO(m))
	}
	return out, nil
}

func listError(err error, msg string) error {
	if errors.Is(err, pagination.ErrInvalidCursor) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
