package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qyve/storefront/internal/cart"
	"github.com/qyve/storefront/internal/ledger"
	"github.com/qyve/storefront/pkg/db"
	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/logger"
	"github.com/qyve/storefront/pkg/metrics"
	"github.com/qyve/storefront/pkg/outbox"
	"github.com/qyve/storefront/pkg/outbox/payloads"
	"github.com/qyve/storefront/pkg/types"
)

const paymentSessionConstraint = "payment_session_id"

// FulfillInput is everything a completed payment session tells us.
type FulfillInput struct {
	PaymentSessionID string
	PaymentIntentID  *string
	UserID           *uuid.UUID
	Metadata         map[string]string
	Address          types.ShippingAddress
	Contact          types.ContactInfo
	AmountPaidCents  int64
	Currency         string
	ShippingPrice    decimal.Decimal
	DiscountCode     *string
}

type FulfillResult struct {
	Order       *models.Order
	Replayed    bool
	Backordered int
}

// Fulfiller turns a paid session into an order.
type Fulfiller interface {
	Fulfill(ctx context.Context, input FulfillInput) (*FulfillResult, error)
}

type fulfiller struct {
	tx       txRunner
	repo     Repository
	carts    cartResolver
	cartRepo cart.CartRepository
	stock    ledger.Repository
	outbox   outbox.Emitter
	logg     *logger.Logger
	metrics  *metrics.StorefrontMetrics
	now      func() time.Time
}

// NewFulfiller wires the order writer.
func NewFulfiller(
	tx txRunner,
	repo Repository,
	carts cartResolver,
	cartRepo cart.CartRepository,
	stock ledger.Repository,
	emitter outbox.Emitter,
	logg *logger.Logger,
	m *metrics.StorefrontMetrics,
) (Fulfiller, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart resolver required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &fulfiller{
		tx:       tx,
		repo:     repo,
		carts:    carts,
		cartRepo: cartRepo,
		stock:    stock,
		outbox:   emitter,
		logg:     logg,
		metrics:  m,
		now:      time.Now,
	}, nil
}

// Fulfill writes the order, its items, address and contact, decrements stock
// and clears the cart in one transaction. A session already fulfilled returns
// the stored order with Replayed set.
func (f *fulfiller) Fulfill(ctx context.Context, input FulfillInput) (*FulfillResult, error) {
	sessionID := strings.TrimSpace(input.PaymentSessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment session id is required")
	}
	ctx = f.logg.WithSessionID(ctx, sessionID)

	var result *FulfillResult
	err := f.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res, err := f.fulfillTx(ctx, tx, sessionID, input)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, paymentSessionConstraint) {
			existing, findErr := f.repo.FindByPaymentSession(ctx, sessionID)
			if findErr == nil {
				f.metrics.OrderWritten(metrics.ResultDuplicate)
				return &FulfillResult{Order: existing, Replayed: true}, nil
			}
		}
		f.metrics.OrderWritten(metrics.ResultError)
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write order")
	}

	if result.Replayed {
		f.metrics.OrderWritten(metrics.ResultDuplicate)
		f.logg.Info(f.logg.WithOrderID(ctx, result.Order.ID.String()), "payment session already fulfilled")
		return result, nil
	}
	f.metrics.OrderWritten(metrics.ResultOK)
	f.metrics.StockShortfall(result.Backordered)
	f.logg.Info(f.logg.WithFields(ctx, map[string]any{
		"order_id":    result.Order.ID.String(),
		"backordered": result.Backordered,
	}), "order written")
	return result, nil
}

func (f *fulfiller) fulfillTx(ctx context.Context, tx *gorm.DB, sessionID string, input FulfillInput) (*FulfillResult, error) {
	repo := f.repo.WithTx(tx)

	existing, err := repo.FindByPaymentSession(ctx, sessionID)
	if err == nil {
		return &FulfillResult{Order: existing, Replayed: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var resolved *cart.Resolved
	if input.UserID != nil {
		resolved, err = f.carts.ResolveForBuyer(ctx, tx, *input.UserID)
	} else {
		resolved, err = f.carts.ResolveGuest(input.Metadata)
	}
	if err != nil {
		return nil, err
	}

	total := Total(resolved.Lines)
	contact := input.Contact.Normalize()
	order := &models.Order{
		UserID:           input.UserID,
		TotalPrice:       total,
		ShippingPrice:    input.ShippingPrice.Round(2),
		AmountPaidCents:  input.AmountPaidCents,
		Currency:         strings.ToLower(input.Currency),
		PaymentSessionID: sessionID,
		PaymentIntentID:  input.PaymentIntentID,
		DiscountCode:     input.DiscountCode,
		CustomerEmail:    contact.Email,
		Status:           enums.OrderStatusPaid,
	}
	if err := repo.Create(ctx, order); err != nil {
		return nil, err
	}

	stock := f.stock.WithTx(tx)
	reference := "order:" + order.ID.String()
	var shortfalls []payloads.StockShortfallEvent
	paidItems := make([]payloads.OrderPaidItem, 0, len(resolved.Lines))

	for _, line := range resolved.Lines {
		item := &models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Size:      line.Size,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: lineTotal(line),
			Status:    enums.OrderItemStatusBackordered,
		}
		if line.ProductSizeID != uuid.Nil {
			sizeID := line.ProductSizeID
			item.ProductSizeID = &sizeID
		}

		decremented := false
		if item.ProductSizeID != nil && line.Quantity > 0 {
			balance, ok, err := stock.TryDecrement(ctx, line.ProductSizeID, line.Quantity)
			if err != nil {
				return nil, err
			}
			if ok {
				decremented = true
				item.Status = enums.OrderItemStatusFulfilled
				productID, err := f.movementProduct(ctx, tx, line)
				if err != nil {
					return nil, err
				}
				ref := reference
				if err := stock.InsertMovement(ctx, &models.StockMovement{
					ProductID:     productID,
					ProductSizeID: line.ProductSizeID,
					Delta:         -line.Quantity,
					Type:          enums.StockMovementOut,
					BalanceAfter:  balance,
					Note:          "checkout",
					Reference:     &ref,
				}); err != nil {
					return nil, err
				}
			}
		}

		if !decremented {
			available := 0
			if item.ProductSizeID != nil {
				current, err := stock.Stock(ctx, line.ProductSizeID)
				if err != nil && !errors.Is(err, ledger.ErrSizeNotFound) {
					return nil, err
				}
				available = current
			}
			shortfalls = append(shortfalls, payloads.StockShortfallEvent{
				OrderID:       order.ID,
				ProductID:     line.ProductID,
				ProductSizeID: item.ProductSizeID,
				Name:          line.Name,
				Size:          line.Size,
				Requested:     line.Quantity,
				Available:     available,
			})
		}

		if err := repo.CreateItem(ctx, item); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, *item)
		paidItems = append(paidItems, payloads.OrderPaidItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Size:      line.Size,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.String(),
			Status:    item.Status,
		})
	}

	address := input.Address.Normalize()
	orderAddress := &models.OrderAddress{
		OrderID:    order.ID,
		Line1:      address.Line1,
		Line2:      address.Line2,
		City:       address.City,
		Province:   address.Province,
		PostalCode: address.PostalCode,
		Country:    address.Country,
	}
	if err := repo.CreateAddress(ctx, orderAddress); err != nil {
		return nil, err
	}
	order.Address = orderAddress

	orderContact := &models.OrderContactInfo{
		OrderID:  order.ID,
		FullName: contact.FullName,
		Email:    contact.Email,
		Phone:    contact.Phone,
	}
	if err := repo.CreateContact(ctx, orderContact); err != nil {
		return nil, err
	}
	order.Contact = orderContact

	if resolved.CartID != nil {
		carts := f.cartRepo.WithTx(tx)
		if err := carts.DeleteItems(ctx, *resolved.CartID); err != nil {
			return nil, err
		}
		if err := carts.MarkConverted(ctx, *resolved.CartID); err != nil {
			return nil, err
		}
	}

	var userID *string
	if input.UserID != nil {
		id := input.UserID.String()
		userID = &id
	}
	paid := payloads.OrderPaidEvent{
		OrderID:          order.ID,
		PaymentSessionID: sessionID,
		UserID:           userID,
		CustomerEmail:    contact.Email,
		CustomerName:     contact.FullName,
		Currency:         order.Currency,
		TotalAmount:      total.StringFixed(2),
		AmountPaidCents:  input.AmountPaidCents,
		DiscountCode:     input.DiscountCode,
		Items:            paidItems,
		BackorderedCount: len(shortfalls),
		PaidAt:           f.now().UTC(),
	}
	if err := f.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data:          paid,
	}); err != nil {
		return nil, err
	}
	for _, shortfall := range shortfalls {
		if err := f.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockShortfall,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data:          shortfall,
		}); err != nil {
			return nil, err
		}
	}

	return &FulfillResult{Order: order, Backordered: len(shortfalls)}, nil
}

// movementProduct returns the product a decremented size belongs to. Guest
// lines whose lookup failed at checkout are resolved here.
func (f *fulfiller) movementProduct(ctx context.Context, tx *gorm.DB, line cart.Line) (uuid.UUID, error) {
	if line.ProductID != nil {
		return *line.ProductID, nil
	}
	var size models.ProductSize
	if err := tx.WithContext(ctx).Select("product_id").Where("id = ?", line.ProductSizeID).Take(&size).Error; err != nil {
		return uuid.Nil, err
	}
	return size.ProductID, nil
}

// Total sums unit price times quantity over the lines, rounded half up to cents.
func Total(lines []cart.Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total.Round(2)
}

func lineTotal(line cart.Line) decimal.Decimal {
	return line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
}
