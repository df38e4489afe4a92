package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/application/service"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"github.com/sangkips/seedledger-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CREATE SALE
// =============================================================================

func TestCreateSale_PartialPaymentLeavesDebt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Debt Client")
	product := env.newProduct(t, "Maize DH04", "100", 10)

	// WHEN 2 x 100 is sold and 150 paid
	sale, err := env.sales.CreateSale(ctx, &service.CreateSaleInput{
		ClientID:   client.ID,
		Items:      []service.SaleItemInput{{ProductID: product.ID, Quantity: 2, Price: dec("100")}},
		PaidAmount: dec("150"),
		Actor:      actor(),
	})

	// THEN the sale owes 50 and no credit is created
	require.NoError(t, err)
	assertDecimal(t, "200", sale.Total)
	assertDecimal(t, "150", sale.Paid)
	assertDecimal(t, "50", sale.Debt)
	assertDecimal(t, "0", sale.NewOverpayment)

	require.Len(t, sale.Payments, 1)
	assertDecimal(t, "150", sale.Payments[0].Amount)
	assert.Equal(t, enum.PaymentMethodCash, sale.Payments[0].Method)
	assert.Nil(t, sale.Payments[0].OverpaymentRecordID)

	assert.Equal(t, int64(0), env.countOverpayments(t, client.ID))
	assertDecimal(t, "0", env.balance(t, client.ID))
	assert.Equal(t, 8, env.quantity(t, product.ID))
}

func TestCreateSale_OverpaymentCreditsClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Credit Client")
	product := env.newProduct(t, "Beans Rosecoco", "100", 10)

	sale, err := env.sales.CreateSale(ctx, &service.CreateSaleInput{
		ClientID:      client.ID,
		Items:         []service.SaleItemInput{{ProductID: product.ID, Quantity: 1, Price: dec("100")}},
		PaidAmount:    dec("150"),
		PaymentMethod: enum.PaymentMethodTransfer,
	})

	require.NoError(t, err)
	assertDecimal(t, "100", sale.Total)
	assertDecimal(t, "0", sale.Debt)
	assertDecimal(t, "50", sale.NewOverpayment)
	assertDecimal(t, "50", env.balance(t, client.ID))

	history, err := env.overpayments.History(ctx, client.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enum.OverpaymentTypeCreated, history[0].Type)
	assertDecimal(t, "50", history[0].Amount)
	require.NotNil(t, history[0].SaleID)
	assert.Equal(t, sale.ID, *history[0].SaleID)

	require.Len(t, sale.Payments, 1)
	assert.Equal(t, enum.PaymentMethodTransfer, sale.Payments[0].Method)
	require.NotNil(t, sale.Payments[0].OverpaymentRecordID)
	assert.Equal(t, history[0].ID, *sale.Payments[0].OverpaymentRecordID)
}

func TestCreateSale_TotalsAndExclusiveDebtOrCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Totals Client")
	maize := env.newProduct(t, "Maize", "35.50", 100)
	beans := env.newProduct(t, "Beans", "12.25", 100)

	items := []service.SaleItemInput{
		{ProductID: maize.ID, Quantity: 3, Price: dec("35.50")},
		{ProductID: beans.ID, Quantity: 4, Price: dec("12.25")},
	}

	for _, paid := range []string{"0", "50", "155.50", "200"} {
		sale, err := env.sales.CreateSale(ctx, &service.CreateSaleInput{ClientID: client.ID, Items: items, PaidAmount: dec(paid)})
		require.NoError(t, err)

		total := decimal.Zero
		for _, item := range sale.Items {
			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		assertDecimal(t, "155.50", sale.Total, "paid %s", paid)
		assert.True(t, total.Equal(sale.Total))
		assert.False(t, sale.Debt.IsPositive() && sale.NewOverpayment.IsPositive(), "paid %s", paid)
		assert.Equal(t, []int{1, 2}, []int{sale.Items[0].Position, sale.Items[1].Position})
	}
}

func TestCreateSale_InsufficientStockForCombinedLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Combined Client")
	product := env.newProduct(t, "Sorghum", "10", 5)

	// GIVEN two lines of the same product that fit alone but not together
	_, err := env.sales.CreateSale(ctx, &service.CreateSaleInput{
		ClientID: client.ID,
		Items: []service.SaleItemInput{
			{ProductID: product.ID, Quantity: 3, Price: dec("10")},
			{ProductID: product.ID, Quantity: 3, Price: dec("10")},
		},
	})

	var stockErr *apperror.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 5, env.quantity(t, product.ID))

	next, err := env.receipts.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "000001", next)
}

func TestCreateSale_RollsBackOnLateFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClientWithCredit(t, "Rollback Client", "20")
	product := env.newProduct(t, "Millet", "50", 10)
	movements := env.countMovements(t, product.ID)
	entries := env.countOverpayments(t, client.ID)

	// WHEN the credit applied is more than the client holds, which only
	// fails after the sale and its stock debit are written
	_, err := env.sales.CreateSale(ctx, &service.CreateSaleInput{
		ClientID:      client.ID,
		Items:         []service.SaleItemInput{{ProductID: product.ID, Quantity: 2, Price: dec("50")}},
		PaidAmount:    dec("10"),
		CreditApplied: dec("60"),
	})

	// THEN nothing of the sale survives
	assert.ErrorIs(t, err, apperror.ErrInsufficientBalance)
	assert.Equal(t, 10, env.quantity(t, product.ID))
	assert.Equal(t, movements, env.countMovements(t, product.ID))
	assert.Equal(t, entries, env.countOverpayments(t, client.ID))
	assertDecimal(t, "20", env.balance(t, client.ID))

	var sales int64
	require.NoError(t, env.db.Unscoped().Model(&entity.Sale{}).Count(&sales).Error)
	assert.Zero(t, sales)
	var payments int64
	require.NoError(t, env.db.Unscoped().Model(&entity.Payment{}).Count(&payments).Error)
	assert.Zero(t, payments)
}

func TestCreateSale_CreditApplied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClientWithCredit(t, "Loyal Client", "80")
	product := env.newProduct(t, "Wheat", "100", 10)

	sale, err := env.sales.CreateSale(ctx, &service.CreateSaleInput{
		ClientID:      client.ID,
		Items:         []service.SaleItemInput{{ProductID: product.ID, Quantity: 1, Price: dec("100")}},
		PaidAmount:    dec("40"),
		CreditApplied: dec("60"),
	})

	require.NoError(t, err)
	assertDecimal(t, "100", sale.Paid)
	assertDecimal(t, "0", sale.Debt)
	assertDecimal(t, "0", sale.NewOverpayment)
	assertDecimal(t, "20", env.balance(t, client.ID))

	require.Len(t, sale.Payments, 2)
	methods := map[enum.PaymentMethod]decimal.Decimal{}
	for _, p := range sale.Payments {
		methods[p.Method] = p.Amount
	}
	assertDecimal(t, "60", methods[enum.PaymentMethodOverpayment])
	assertDecimal(t, "40", methods[enum.PaymentMethodCash])

	// AND deleting the sale gives the credit back
	require.NoError(t, env.sales.DeleteSale(ctx, sale.ID, nil))
	assertDecimal(t, "80", env.balance(t, client.ID))
	assert.Equal(t, 10, env.quantity(t, product.ID))
}

func TestCreateSale_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Validation Client")
	product := env.newProduct(t, "Peas", "10", 10)
	line := []service.SaleItemInput{{ProductID: product.ID, Quantity: 1, Price: dec("10")}}

	tests := []struct {
		name    string
		input   service.CreateSaleInput
		wantErr *apperror.AppError
	}{
		{"missing client", service.CreateSaleInput{Items: line}, apperror.ErrInvalidArgument},
		{"no items", service.CreateSaleInput{ClientID: client.ID}, apperror.ErrInvalidArgument},
		{"zero quantity", service.CreateSaleInput{ClientID: client.ID, Items: []service.SaleItemInput{{ProductID: product.ID, Price: dec("10")}}}, apperror.ErrInvalidArgument},
		{"negative price", service.CreateSaleInput{ClientID: client.ID, Items: []service.SaleItemInput{{ProductID: product.ID, Quantity: 1, Price: dec("-1")}}}, apperror.ErrInvalidArgument},
		{"negative paid", service.CreateSaleInput{ClientID: client.ID, Items: line, PaidAmount: dec("-1")}, apperror.ErrInvalidArgument},
		{"sub-cent paid", service.CreateSaleInput{ClientID: client.ID, Items: line, PaidAmount: dec("0.001")}, apperror.ErrInvalidArgument},
		{"unknown method", service.CreateSaleInput{ClientID: client.ID, Items: line, PaymentMethod: "barter"}, apperror.ErrInvalidArgument},
		{"overpayment method", service.CreateSaleInput{ClientID: client.ID, Items: line, PaymentMethod: enum.PaymentMethodOverpayment}, apperror.ErrInvalidArgument},
		{"credit above total", service.CreateSaleInput{ClientID: client.ID, Items: line, CreditApplied: dec("11")}, apperror.ErrInvalidArgument},
		{"unknown client", service.CreateSaleInput{ClientID: uuid.New(), Items: line}, apperror.ErrNotFound},
		{"unknown product", service.CreateSaleInput{ClientID: client.ID, Items: []service.SaleItemInput{{ProductID: uuid.New(), Quantity: 1, Price: dec("1")}}}, apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			_, err := env.sales.CreateSale(ctx, &input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 10, env.quantity(t, product.ID))
}

func TestCreateSale_InactiveClient(t *testing.T) {
	env := newTestEnv(t)
	client := env.newClient(t, "Dormant Client")
	product := env.newProduct(t, "Peas", "10", 10)
	require.NoError(t, env.db.Model(&entity.Client{}).Where("id = ?", client.ID).Update("is_active", false).Error)

	_, err := env.sales.CreateSale(context.Background(), &service.CreateSaleInput{
		ClientID: client.ID,
		Items:    []service.SaleItemInput{{ProductID: product.ID, Quantity: 1, Price: dec("10")}},
	})

	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

// =============================================================================
// RECEIPT LOCK
// =============================================================================

// recordingLocker grants every lock unless refuse is set and records the
// keys taken. onRelease runs when a lock is given back.
type recordingLocker struct {
	refuse    error
	keys      []string
	released  int
	onRelease func()
}

func (l *recordingLocker) Lock(_ context.Context, key string) (func(context.Context) error, error) {
	if l.refuse != nil {
		return nil, l.refuse
	}
	l.keys = append(l.keys, key)
	return func(context.Context) error {
		l.released++
		if l.onRelease != nil {
			l.onRelease()
		}
		return nil
	}, nil
}

func (e *testEnv) saleServiceWithLocker(locker service.Locker) *service.SaleService {
	deps := e.saleDeps()
	deps.Locker = locker
	return service.NewSaleService(deps)
}

func (e *testEnv) countSales(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&entity.Sale{}).Count(&n).Error)
	return n
}

func TestCreateSale_HoldsReceiptLockUntilCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Locked Client")
	product := env.newProduct(t, "Maize", "10", 10)

	var salesAtRelease int64 = -1
	locker := &recordingLocker{}
	locker.onRelease = func() { salesAtRelease = env.countSales(t) }
	sales := env.saleServiceWithLocker(locker)

	sale, err := sales.CreateSale(ctx, &service.CreateSaleInput{
		ClientID:   client.ID,
		Items:      []service.SaleItemInput{{ProductID: product.ID, Quantity: 2, Price: dec("10")}},
		PaidAmount: dec("20"),
	})

	require.NoError(t, err)
	assert.Equal(t, "000001", sale.ReceiptNumber)
	assert.Equal(t, []string{"lock:receipt-sequence"}, locker.keys)
	assert.Equal(t, 1, locker.released)
	// the sale was committed before the lock was given back
	assert.EqualValues(t, 1, salesAtRelease)
}

func TestCreateSale_ReleasesReceiptLockOnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Short Client")
	product := env.newProduct(t, "Beans", "10", 1)
	locker := &recordingLocker{}
	sales := env.saleServiceWithLocker(locker)

	_, err := sales.CreateSale(ctx, &service.CreateSaleInput{
		ClientID: client.ID,
		Items:    []service.SaleItemInput{{ProductID: product.ID, Quantity: 5, Price: dec("10")}},
	})

	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.Len(t, locker.keys, 1)
	assert.Equal(t, 1, locker.released)
	assert.EqualValues(t, 0, env.countSales(t))
}

func TestCreateSale_BusyReceiptLockWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Busy Client")
	product := env.newProduct(t, "Millet", "10", 10)
	movements := env.countMovements(t, product.ID)
	locker := &recordingLocker{refuse: apperror.NewConflictError("Resource is busy, please retry")}
	sales := env.saleServiceWithLocker(locker)

	_, err := sales.CreateSale(ctx, &service.CreateSaleInput{
		ClientID:   client.ID,
		Items:      []service.SaleItemInput{{ProductID: product.ID, Quantity: 1, Price: dec("10")}},
		PaidAmount: dec("10"),
	})

	require.Error(t, err)
	assert.True(t, apperror.IsRetryable(err))
	assert.Equal(t, 0, locker.released)
	assert.EqualValues(t, 0, env.countSales(t))
	assert.Equal(t, 10, env.quantity(t, product.ID))
	assert.Equal(t, movements, env.countMovements(t, product.ID))

	var payments int64
	require.NoError(t, env.db.Model(&entity.Payment{}).Count(&payments).Error)
	assert.Zero(t, payments)
}

// =============================================================================
// DELETE SALE
// =============================================================================

func TestDeleteSale_RestoresStockAndCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Reversal Client")
	product := env.newProduct(t, "Maize", "100", 10)
	balanceBefore := env.balance(t, client.ID)

	sale := createSimpleSale(t, env, client.ID, product.ID, 1, "100", "150")
	require.Equal(t, 9, env.quantity(t, product.ID))
	require.True(t, dec("50").Equal(env.balance(t, client.ID)))

	// WHEN the sale is deleted
	require.NoError(t, env.sales.DeleteSale(ctx, sale.ID, actor()))

	// THEN stock and credit are back where they were
	assert.Equal(t, 10, env.quantity(t, product.ID))
	assert.True(t, balanceBefore.Equal(env.balance(t, client.ID)))
	assert.Equal(t, env.quantity(t, product.ID), env.movementSum(t, product.ID))
	assertDecimal(t, "0", env.logSum(t, client.ID))

	movements, err := env.stock.Movements(ctx, &product.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, enum.MovementTypeAdjustment, movements[0].MovementType)
	assert.Equal(t, "reversal", movements[0].Note)

	// AND the sale and its payment are soft-deleted
	_, err = env.sales.GetSale(ctx, sale.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var payments []entity.Payment
	require.NoError(t, env.db.Unscoped().Where("sale_id = ?", sale.ID).Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].DeletedAt.Valid)

	var deleted entity.Sale
	require.NoError(t, env.db.Unscoped().First(&deleted, "id = ?", sale.ID).Error)
	assert.True(t, deleted.DeletedAt.Valid)
}

func TestDeleteSale_SkipsReturnedQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Return Then Delete")
	product := env.newProduct(t, "Beans", "20", 10)

	sale := createSimpleSale(t, env, client.ID, product.ID, 4, "20", "80")
	_, err := env.returns.CreateReturn(ctx, &service.CreateReturnInput{
		SaleID: sale.ID,
		Items:  []service.ReturnItemInput{{SaleItemID: sale.Items[0].ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 7, env.quantity(t, product.ID))

	require.NoError(t, env.sales.DeleteSale(ctx, sale.ID, nil))

	assert.Equal(t, 10, env.quantity(t, product.ID))
	assert.Equal(t, env.quantity(t, product.ID), env.movementSum(t, product.ID))
}

func TestDeleteSale_NotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.sales.DeleteSale(ctx, uuid.New(), nil), apperror.ErrNotFound)

	client := env.newClient(t, "Twice Client")
	product := env.newProduct(t, "Peas", "10", 5)
	sale := createSimpleSale(t, env, client.ID, product.ID, 1, "10", "10")
	require.NoError(t, env.sales.DeleteSale(ctx, sale.ID, nil))

	assert.ErrorIs(t, env.sales.DeleteSale(ctx, sale.ID, nil), apperror.ErrNotFound)
	assert.Equal(t, 5, env.quantity(t, product.ID))
}

func TestDeleteSale_ClientSoftDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClientWithCredit(t, "Departed Client", "30")
	product := env.newProduct(t, "Sorghum", "100", 10)

	// GIVEN a sale that spent credit and overpaid, after which the client is removed
	sale, err := env.sales.CreateSale(ctx, &service.CreateSaleInput{
		ClientID:      client.ID,
		Items:         []service.SaleItemInput{{ProductID: product.ID, Quantity: 1, Price: dec("100")}},
		PaidAmount:    dec("100"),
		CreditApplied: dec("30"),
	})
	require.NoError(t, err)
	assertDecimal(t, "30", sale.NewOverpayment)
	require.NoError(t, env.db.Delete(&entity.Client{}, "id = ?", client.ID).Error)

	// WHEN the sale is deleted
	require.NoError(t, env.sales.DeleteSale(ctx, sale.ID, actor()))

	// THEN stock comes back and the removed client's ledger is reversed
	assert.Equal(t, 10, env.quantity(t, product.ID))

	var stored entity.Client
	require.NoError(t, env.db.Unscoped().First(&stored, "id = ?", client.ID).Error)
	assert.True(t, stored.DeletedAt.Valid)
	assertDecimal(t, "30", stored.CurrentOverpayment)
	assertDecimal(t, "30", env.logSum(t, client.ID))

	// AND ordinary credit operations still treat the client as gone
	_, err = env.overpayments.Withdraw(ctx, &service.OverpaymentEntry{ClientID: client.ID, Amount: dec("1")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestListSales_FiltersByClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.newClient(t, "Alice")
	bob := env.newClient(t, "Bob")
	product := env.newProduct(t, "Maize", "10", 100)

	createSimpleSale(t, env, alice.ID, product.ID, 1, "10", "10")
	createSimpleSale(t, env, alice.ID, product.ID, 1, "10", "10")
	createSimpleSale(t, env, bob.ID, product.ID, 1, "10", "10")

	result, err := env.sales.ListSales(ctx, &repository.SaleFilterParams{
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 10},
		ClientID:   &alice.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Pagination.Total)
	require.Len(t, result.Items, 2)
	for _, sale := range result.Items {
		assert.Equal(t, alice.ID, sale.ClientID)
	}
}
