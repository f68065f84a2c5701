package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/qyve/storefront/internal/ledger"
	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/pagination"
)

type stubLedgerService struct {
	adjust  ledger.AdjustInput
	calls   int
	stock   ledger.StockFilter
	history ledger.HistoryFilter
	err     error
}

func (s *stubLedgerService) Adjust(ctx context.Context, input ledger.AdjustInput) (*models.StockMovement, error) {
	s.calls++
	s.adjust = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.StockMovement{
		ID:            uuid.New(),
		ProductID:     input.ProductID,
		ProductSizeID: input.ProductSizeID,
		Delta:         input.Quantity,
		Type:          input.Type,
		BalanceAfter:  12,
	}, nil
}

func (s *stubLedgerService) ListStock(ctx context.Context, filter ledger.StockFilter, params pagination.Params) (pagination.Page[ledger.StockRow], error) {
	s.stock = filter
	return pagination.Page[ledger.StockRow]{}, s.err
}

func (s *stubLedgerService) History(ctx context.Context, filter ledger.HistoryFilter, params pagination.Params) (pagination.Page[ledger.MovementDTO], error) {
	s.history = filter
	return pagination.Page[ledger.MovementDTO]{}, s.err
}

func TestStockAdjustCreatesMovement(t *testing.T) {
	svc := &stubLedgerService{}
	sizeID, productID := uuid.New(), uuid.New()
	body := map[string]any{"size_id": sizeID, "product_id": productID, "quantity": 5, "type": "in", "note": "restock"}
	req := asUser(jsonRequest(t, http.MethodPost, "/api/admin/stock/adjust", body), uuid.New(), "ops@qyve.id")

	resp := serveRoute(http.MethodPost, "/api/admin/stock/adjust", StockAdjust(svc, testLogger()), req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.adjust.Type != enums.StockMovementIn || svc.adjust.ActorEmail != "ops@qyve.id" || svc.adjust.ProductSizeID != sizeID {
		t.Fatalf("unexpected adjust input %+v", svc.adjust)
	}

	var movement ledger.MovementDTO
	decodeData(t, resp, &movement)
	if movement.ProductSizeID != sizeID {
		t.Fatalf("unexpected movement %+v", movement)
	}
}

func TestStockAdjustRejectsUnknownType(t *testing.T) {
	svc := &stubLedgerService{}
	body := map[string]any{"size_id": uuid.New(), "product_id": uuid.New(), "quantity": 5, "type": "MOVE"}

	resp := serveRoute(http.MethodPost, "/api/admin/stock/adjust", StockAdjust(svc, testLogger()), jsonRequest(t, http.MethodPost, "/api/admin/stock/adjust", body))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestStockAdjustFloorConflict(t *testing.T) {
	svc := &stubLedgerService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "stock cannot go negative")}
	body := map[string]any{"size_id": uuid.New(), "product_id": uuid.New(), "quantity": 50, "type": "OUT"}

	resp := serveRoute(http.MethodPost, "/api/admin/stock/adjust", StockAdjust(svc, testLogger()), jsonRequest(t, http.MethodPost, "/api/admin/stock/adjust", body))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestStockListThreshold(t *testing.T) {
	svc := &stubLedgerService{}
	resp := serveRoute(http.MethodGet, "/api/admin/stock", StockList(svc, testLogger()), jsonRequest(t, http.MethodGet, "/api/admin/stock?low_stock_threshold=3", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.stock.LowStockThreshold == nil || *svc.stock.LowStockThreshold != 3 {
		t.Fatalf("expected threshold 3, got %v", svc.stock.LowStockThreshold)
	}

	svc = &stubLedgerService{}
	serveRoute(http.MethodGet, "/api/admin/stock", StockList(svc, testLogger()), jsonRequest(t, http.MethodGet, "/api/admin/stock", nil))
	if svc.stock.LowStockThreshold != nil {
		t.Fatalf("threshold should be unset")
	}
}

func TestStockHistoryFilters(t *testing.T) {
	svc := &stubLedgerService{}
	sizeID := uuid.New()
	resp := serveRoute(http.MethodGet, "/api/admin/stock/history", StockHistory(svc, testLogger()), jsonRequest(t, http.MethodGet, "/api/admin/stock/history?size_id="+sizeID.String(), nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.history.ProductSizeID == nil || *svc.history.ProductSizeID != sizeID || svc.history.ProductID != nil {
		t.Fatalf("unexpected filter %+v", svc.history)
	}

	resp = serveRoute(http.MethodGet, "/api/admin/stock/history", StockHistory(svc, testLogger()), jsonRequest(t, http.MethodGet, "/api/admin/stock/history?product_id=nope", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
