package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/application/service"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// =============================================================================
// INCREASE / DECREASE
// =============================================================================

func TestStock_IncreaseLogsMovement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.newProduct(t, "Maize H614", "100", 0)

	// WHEN production adds 12 units
	res, err := env.stock.Increase(ctx, &service.StockChange{
		ProductID:    product.ID,
		Quantity:     12,
		MovementType: enum.MovementTypeProduction,
		Actor:        actor(),
	})

	// THEN the quantity and the snapshot agree
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 12, res.Delta)
	assert.Equal(t, 12, res.BalanceAfter)
	assert.NotZero(t, res.MovementID)
	assert.Equal(t, 12, env.quantity(t, product.ID))

	movements, err := env.stock.Movements(ctx, &product.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, enum.MovementTypeProduction, movements[0].MovementType)
	assert.Equal(t, 12, movements[0].QuantityAfter)
}

func TestStock_IncreaseUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.stock.Increase(context.Background(), &service.StockChange{
		ProductID:    uuid.New(),
		Quantity:     1,
		MovementType: enum.MovementTypeProduction,
	})

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestStock_RejectsInvalidChanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.newProduct(t, "Beans KK8", "80", 5)

	tests := []struct {
		name   string
		change service.StockChange
	}{
		{"zero quantity", service.StockChange{ProductID: product.ID, Quantity: 0, MovementType: enum.MovementTypeProduction}},
		{"negative quantity", service.StockChange{ProductID: product.ID, Quantity: -3, MovementType: enum.MovementTypeProduction}},
		{"unknown movement type", service.StockChange{ProductID: product.ID, Quantity: 1, MovementType: "gift"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := tt.change
			_, err := env.stock.Increase(ctx, &change)
			assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
			_, err = env.stock.Decrease(ctx, &change)
			assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
		})
	}

	assert.Equal(t, 5, env.quantity(t, product.ID))
}

func TestStock_DecreaseBeyondQuantityFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// GIVEN 5 units on hand
	product := env.newProduct(t, "Sorghum Gadam", "60", 5)
	before := env.countMovements(t, product.ID)

	// WHEN 10 are taken out
	_, err := env.stock.Decrease(ctx, &service.StockChange{
		ProductID:    product.ID,
		Quantity:     10,
		MovementType: enum.MovementTypeWriteOff,
	})

	// THEN it fails and nothing changes
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	var stockErr *apperror.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Sorghum Gadam", stockErr.ProductName)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 10, stockErr.Requested)

	assert.Equal(t, 5, env.quantity(t, product.ID))
	assert.Equal(t, before, env.countMovements(t, product.ID))
}

func TestStock_DecreaseToZero(t *testing.T) {
	env := newTestEnv(t)
	product := env.newProduct(t, "Millet", "40", 3)

	res, err := env.stock.Decrease(context.Background(), &service.StockChange{
		ProductID:    product.ID,
		Quantity:     3,
		MovementType: enum.MovementTypeWriteOff,
	})

	require.NoError(t, err)
	assert.Equal(t, -3, res.Delta)
	assert.Equal(t, 0, res.BalanceAfter)

	ok, err := env.stock.HasStock(context.Background(), product.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

// =============================================================================
// ADJUST
// =============================================================================

func TestStock_Adjust(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.newProduct(t, "Sunflower", "120", 10)

	t.Run("sets quantity and logs the signed difference", func(t *testing.T) {
		res, err := env.stock.Adjust(ctx, product.ID, 4, actor(), "stock count")
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, -6, res.Delta)
		assert.Equal(t, 4, env.quantity(t, product.ID))
	})

	t.Run("same quantity is a no-op", func(t *testing.T) {
		before := env.countMovements(t, product.ID)
		res, err := env.stock.Adjust(ctx, product.ID, 4, nil, "")
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, 4, res.BalanceAfter)
		assert.Equal(t, before, env.countMovements(t, product.ID))
	})

	t.Run("negative quantity is rejected", func(t *testing.T) {
		_, err := env.stock.Adjust(ctx, product.ID, -1, nil, "")
		assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
	})
}

// =============================================================================
// LEDGER INVARIANT
// =============================================================================

func TestStock_QuantityEqualsMovementSum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.newProduct(t, "Wheat Kwale", "90", 20)

	steps := []func() error{
		func() error {
			_, err := env.stock.Increase(ctx, &service.StockChange{ProductID: product.ID, Quantity: 7, MovementType: enum.MovementTypeProduction})
			return err
		},
		func() error {
			_, err := env.stock.Decrease(ctx, &service.StockChange{ProductID: product.ID, Quantity: 11, MovementType: enum.MovementTypeSale})
			return err
		},
		func() error {
			_, err := env.stock.Adjust(ctx, product.ID, 30, nil, "recount")
			return err
		},
		func() error {
			// fails and must leave no trace
			_, err := env.stock.Decrease(ctx, &service.StockChange{ProductID: product.ID, Quantity: 500, MovementType: enum.MovementTypeWriteOff})
			return err
		},
		func() error {
			_, err := env.stock.Increase(ctx, &service.StockChange{ProductID: product.ID, Quantity: 2, MovementType: enum.MovementTypeReturn})
			return err
		},
	}

	for _, step := range steps {
		_ = step()
		assert.Equal(t, env.quantity(t, product.ID), env.movementSum(t, product.ID))
	}
	assert.Equal(t, 32, env.quantity(t, product.ID))

	discrepancies, err := env.stock.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
}

func TestStock_ReconcileReportsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.newProduct(t, "Cowpeas", "70", 8)
	untouched := env.newProduct(t, "Green grams", "75", 2)

	// GIVEN a quantity edited behind the ledger's back
	require.NoError(t, env.db.Model(&entity.Stock{}).
		Where("product_id = ?", product.ID).
		Update("quantity", 5).Error)

	discrepancies, err := env.stock.Reconcile(ctx)

	require.NoError(t, err)
	require.Len(t, discrepancies, 1)
	d := discrepancies[0]
	assert.Equal(t, product.ID, d.ProductID)
	assert.Equal(t, "Cowpeas", d.ProductName)
	assert.Equal(t, 5, d.CurrentStock)
	assert.Equal(t, 8, d.CalculatedStock)
	assert.Equal(t, -3, d.Difference)
	assert.NotEqual(t, untouched.ID, d.ProductID)

	// reconcile never repairs
	assert.Equal(t, 5, env.quantity(t, product.ID))
}

func TestStock_MovementsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.newProduct(t, "Peas", "50", 1)

	for i := 0; i < 3; i++ {
		_, err := env.stock.Increase(ctx, &service.StockChange{ProductID: product.ID, Quantity: 1, MovementType: enum.MovementTypeProduction})
		require.NoError(t, err)
	}

	movements, err := env.stock.Movements(ctx, &product.ID, 2)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, 4, movements[0].QuantityAfter)
	assert.Equal(t, 3, movements[1].QuantityAfter)
}

// =============================================================================
// LOGGING
// =============================================================================

func TestStockLedger_InfoLogOnlyForStandaloneChanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.newProduct(t, "Maize", "10", 10)
	core, logs := observer.New(zapcore.InfoLevel)
	stock := service.NewStockService(env.tx, env.stockRepo, env.productRepo, zap.New(core))
	change := &service.StockChange{ProductID: product.ID, Quantity: 2, MovementType: enum.MovementTypeProduction}

	_, err := stock.Increase(ctx, change)
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage("stock increased").Len())

	// WHEN the same change joins an outer transaction that rolls back
	errAbort := errors.New("abort")
	err = env.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := stock.Increase(ctx, change); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	// THEN no info entry reports a change that never committed
	assert.Equal(t, 1, logs.FilterMessage("stock increased").Len())
	assert.Equal(t, 12, env.quantity(t, product.ID))
}
