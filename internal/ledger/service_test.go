package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qyve/storefront/pkg/db"
	"github.com/qyve/storefront/pkg/db/dbtest"
	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestDelta(t *testing.T) {
	tests := []struct {
		typ  enums.StockMovementType
		qty  int
		want int
	}{
		{enums.StockMovementIn, 5, 5},
		{enums.StockMovementIn, -5, 5},
		{enums.StockMovementOut, 3, -3},
		{enums.StockMovementOut, -3, -3},
		{enums.StockMovementAdjust, -2, -2},
		{enums.StockMovementAdjust, 4, 4},
	}
	for _, tt := range tests {
		got, err := Delta(tt.typ, tt.qty)
		require.NoError(t, err)
		require.Equal(t, tt.want, got, "%s %d", tt.typ, tt.qty)
	}
	_, err := Delta("MOVE", 1)
	require.Error(t, err)
}

func TestAdjustRecordsServerBalance(t *testing.T) {
	svc, conn := newTestService(t)
	product := dbtest.SeedProduct(t, conn, "Keeper Jersey", "15.00", dbtest.SizeSeed{Size: "M", Stock: 4})
	size := product.Sizes[0]

	movement, err := svc.Adjust(context.Background(), AdjustInput{
		ProductSizeID: size.ID,
		ProductID:     product.ID,
		Quantity:      3,
		Type:          enums.StockMovementOut,
		Note:          "damaged",
		ActorEmail:    "ops@qyve.id",
	})
	require.NoError(t, err)
	require.Equal(t, -3, movement.Delta)
	require.Equal(t, 1, movement.BalanceAfter)
	require.Equal(t, "ops@qyve.id", *movement.ActorEmail)
	require.Equal(t, 1, dbtest.Stock(t, conn, size.ID))
}

func TestAdjustRejectsNegativeStock(t *testing.T) {
	svc, conn := newTestService(t)
	product := dbtest.SeedProduct(t, conn, "Keeper Gloves", "9.00", dbtest.SizeSeed{Size: "9", Stock: 2})
	size := product.Sizes[0]

	_, err := svc.Adjust(context.Background(), AdjustInput{
		ProductSizeID: size.ID,
		ProductID:     product.ID,
		Quantity:      -3,
		Type:          enums.StockMovementAdjust,
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
	require.Equal(t, 2, dbtest.Stock(t, conn, size.ID))

	var count int64
	require.NoError(t, conn.Model(&models.StockMovement{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAdjustUnknownOrMismatchedSize(t *testing.T) {
	svc, conn := newTestService(t)
	product := dbtest.SeedProduct(t, conn, "Socks", "3.00", dbtest.SizeSeed{Size: "F", Stock: 2})

	_, err := svc.Adjust(context.Background(), AdjustInput{
		ProductSizeID: product.Sizes[0].ID,
		ProductID:     uuid.New(),
		Quantity:      1,
		Type:          enums.StockMovementIn,
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestAdjustValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Adjust(context.Background(), AdjustInput{
		ProductSizeID: uuid.New(),
		ProductID:     uuid.New(),
		Quantity:      0,
		Type:          enums.StockMovementAdjust,
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Adjust(context.Background(), AdjustInput{
		ProductSizeID: uuid.New(),
		ProductID:     uuid.New(),
		Quantity:      1,
		Type:          "SWAP",
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestConcurrentOutAdjustmentsNeverOversell(t *testing.T) {
	svc, conn := newTestService(t)
	product := dbtest.SeedProduct(t, conn, "Captain Armband", "2.00", dbtest.SizeSeed{Size: "F", Stock: 5})
	size := product.Sizes[0]

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Adjust(context.Background(), AdjustInput{
				ProductSizeID: size.ID,
				ProductID:     product.ID,
				Quantity:      1,
				Type:          enums.StockMovementOut,
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	stock := dbtest.Stock(t, conn, size.ID)
	require.GreaterOrEqual(t, stock, 0)
	require.Equal(t, 5-accepted, stock)
}

func TestListStockAndHistory(t *testing.T) {
	svc, conn := newTestService(t)
	product := dbtest.SeedProduct(t, conn, "Jersey", "13.00",
		dbtest.SizeSeed{Size: "S", Stock: 1},
		dbtest.SizeSeed{Size: "M", Stock: 10},
		dbtest.SizeSeed{Size: "L", Stock: 0},
	)

	threshold := 2
	page, err := svc.ListStock(context.Background(), StockFilter{LowStockThreshold: &threshold}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, 0, page.Items[0].Stock)
	require.Equal(t, "Jersey", page.Items[0].ProductName)

	first, err := svc.ListStock(context.Background(), StockFilter{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)
	second, err := svc.ListStock(context.Background(), StockFilter{}, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Equal(t, 10, second.Items[0].Stock)

	for _, size := range product.Sizes {
		_, err := svc.Adjust(context.Background(), AdjustInput{
			ProductSizeID: size.ID,
			ProductID:     product.ID,
			Quantity:      2,
			Type:          enums.StockMovementIn,
		})
		require.NoError(t, err)
	}
	sizeID := product.Sizes[1].ID
	history, err := svc.History(context.Background(), HistoryFilter{ProductSizeID: &sizeID}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	require.Equal(t, 12, history.Items[0].BalanceAfter)

	_, err = svc.History(context.Background(), HistoryFilter{}, pagination.Params{Cursor: "%%%"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestListStockRejectsNegativeThreshold(t *testing.T) {
	svc, _ := newTestService(t)
	threshold := -1
	_, err := svc.ListStock(context.Background(), StockFilter{LowStockThreshold: &threshold}, pagination.Params{})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
