package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/outbox"
	"github.com/qyve/storefront/pkg/outbox/payloads"
	"github.com/qyve/storefront/pkg/pagination"
)

// Service exposes order reads and admin status changes.
type Service interface {
	ListForBuyer(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error)
	ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[OrderDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to enums.OrderStatus, actorEmail string) (*OrderDTO, error)
	Summary(ctx context.Context, since time.Time) (int64, decimal.Decimal, error)
	Recent(ctx context.Context, limit int) ([]OrderDTO, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	now    func() time.Time
}

// NewService builds the order read service.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, now: time.Now}, nil
}

func (s *service) ListForBuyer(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error) {
	return s.list(ctx, ListFilter{UserID: &userID}, params)
}

func (s *service) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if status != nil && !status.IsValid() {
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	return s.list(ctx, ListFilter{Status: status}, params)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[OrderDTO], error) {
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	page := pagination.Build(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out := pagination.Page[OrderDTO]{Items: make([]OrderDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Items = append(out.Items, NewOrderDTO(&page.Items[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

// UpdateStatus applies an admin transition and queues order_status_changed in
// the same transaction.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, to enums.OrderStatus, actorEmail string) (*OrderDTO, error) {
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		from := order.Status
		if !from.CanTransitionTo(to) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, to)).
				WithDetails(map[string]any{"from": from, "to": to})
		}
		updated, err := repo.UpdateStatus(ctx, id, from, to)
		if err != nil {
			return err
		}
		if updated == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   id,
			Actor:         &outbox.ActorRef{Email: actorEmail, Role: "admin"},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:       id,
				From:          from,
				To:            to,
				CustomerEmail: order.CustomerEmail,
				ChangedBy:     actorEmail,
				ChangedAt:     s.now().UTC(),
			},
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	return s.Get(ctx, id)
}

func (s *service) Summary(ctx context.Context, since time.Time) (int64, decimal.Decimal, error) {
	count, revenue, err := s.repo.Summary(ctx, since)
	if err != nil {
		return 0, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summarize orders")
	}
	return count, revenue, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]OrderDTO, error) {
	rows, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewOrderDTO(&rows[i]))
	}
	return out, nil
}
