package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/application/service"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CREATE PAYMENT
// =============================================================================

func TestCreatePayment_ReducesDebt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Installment Client")
	product := env.newProduct(t, "Maize", "100", 10)
	sale := createSimpleSale(t, env, client.ID, product.ID, 2, "100", "50")

	res, err := env.payments.CreatePayment(ctx, &service.CreatePaymentInput{
		SaleID: sale.ID,
		Amount: dec("100"),
		Method: enum.PaymentMethodCard,
	})

	require.NoError(t, err)
	assertDecimal(t, "150", res.Sale.Paid)
	assertDecimal(t, "50", res.Sale.Debt)
	assertDecimal(t, "0", res.Sale.NewOverpayment)
	assert.Len(t, res.Sale.Payments, 2)
	assert.Nil(t, res.Payment.OverpaymentRecordID)
	assert.Equal(t, int64(0), env.countOverpayments(t, client.ID))
}

func TestCreatePayment_CreditsOnlyTheIncrease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Generous Client")
	product := env.newProduct(t, "Beans", "100", 10)

	// GIVEN a sale already overpaid by 50
	sale := createSimpleSale(t, env, client.ID, product.ID, 1, "100", "150")
	require.True(t, dec("50").Equal(env.balance(t, client.ID)))

	// WHEN 20 more is paid
	res, err := env.payments.CreatePayment(ctx, &service.CreatePaymentInput{SaleID: sale.ID, Amount: dec("20")})

	// THEN only the 20 is credited and linked to the payment
	require.NoError(t, err)
	assertDecimal(t, "70", res.Sale.NewOverpayment)
	assertDecimal(t, "70", env.balance(t, client.ID))

	history, err := env.overpayments.History(ctx, client.ID, 1)
	require.NoError(t, err)
	assertDecimal(t, "20", history[0].Amount)
	require.NotNil(t, res.Payment.OverpaymentRecordID)
	assert.Equal(t, history[0].ID, *res.Payment.OverpaymentRecordID)

	stored, err := env.paymentRepo.GetByID(ctx, res.Payment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.OverpaymentRecordID)
	assert.Equal(t, history[0].ID, *stored.OverpaymentRecordID)
}

func TestCreatePayment_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClient(t, "Strict Client")
	product := env.newProduct(t, "Peas", "10", 10)
	sale := createSimpleSale(t, env, client.ID, product.ID, 1, "10", "0")

	tests := []struct {
		name    string
		input   service.CreatePaymentInput
		wantErr *apperror.AppError
	}{
		{"zero amount", service.CreatePaymentInput{SaleID: sale.ID, Amount: dec("0")}, apperror.ErrInvalidArgument},
		{"negative amount", service.CreatePaymentInput{SaleID: sale.ID, Amount: dec("-5")}, apperror.ErrInvalidArgument},
		{"sub-cent amount", service.CreatePaymentInput{SaleID: sale.ID, Amount: dec("1.999")}, apperror.ErrInvalidArgument},
		{"unknown method", service.CreatePaymentInput{SaleID: sale.ID, Amount: dec("1"), Method: "iou"}, apperror.ErrInvalidArgument},
		{"unknown sale", service.CreatePaymentInput{SaleID: uuid.New(), Amount: dec("1")}, apperror.ErrNotFound},
		{"credit above debt", service.CreatePaymentInput{SaleID: sale.ID, Amount: dec("11"), Method: enum.PaymentMethodOverpayment}, apperror.ErrInvalidArgument},
		{"credit above balance", service.CreatePaymentInput{SaleID: sale.ID, Amount: dec("5"), Method: enum.PaymentMethodOverpayment}, apperror.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			_, err := env.payments.CreatePayment(ctx, &input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	current, err := env.sales.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assertDecimal(t, "10", current.Debt)
	assert.Empty(t, current.Payments)
}

func TestCreatePayment_FromClientCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.newClientWithCredit(t, "Credit Spender", "100")
	product := env.newProduct(t, "Wheat", "100", 10)
	sale := createSimpleSale(t, env, client.ID, product.ID, 1, "100", "0")

	res, err := env.payments.CreatePayment(ctx, &service.CreatePaymentInput{
		SaleID: sale.ID,
		Amount: dec("40"),
		Method: enum.PaymentMethodOverpayment,
	})

	require.NoError(t, err)
	assertDecimal(t, "60", res.Sale.Debt)
	assertDecimal(t, "60", env.balance(t, client.ID))
	require.NotNil(t, res.Payment.OverpaymentRecordID)

	// AND deleting it restores both sides
	require.NoError(t, env.payments.DeletePayment(ctx, res.Payment.ID, nil))
	current, err := env.sales.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assertDecimal(t, "100", current.Debt)
	assertDecimal(t, "100", env.balance(t, client.ID))
}

// =============================================================================
// DELETE PAYMENT
// =============================================================================

func TestPayment_CreateThenDeleteRestoresSale(t *testing.T) {
	tests := []struct {
		name       string
		salePaid   string
		payment    string
		wantCredit string
	}{
		{"stays in debt", "20", "30", "0"},
		{"crosses into overpayment", "80", "50", "30"},
		{"already overpaid", "150", "20", "70"},
		{"settles exactly", "0", "100", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			client := env.newClient(t, "Round Trip Client")
			product := env.newProduct(t, "Maize", "100", 10)
			sale := createSimpleSale(t, env, client.ID, product.ID, 1, "100", tt.salePaid)
			balanceBefore := env.balance(t, client.ID)

			res, err := env.payments.CreatePayment(ctx, &service.CreatePaymentInput{SaleID: sale.ID, Amount: dec(tt.payment)})
			require.NoError(t, err)
			assertDecimal(t, tt.wantCredit, env.balance(t, client.ID))

			require.NoError(t, env.payments.DeletePayment(ctx, res.Payment.ID, actor()))

			after, err := env.sales.GetSale(ctx, sale.ID)
			require.NoError(t, err)
			assert.True(t, sale.Paid.Equal(after.Paid))
			assert.True(t, sale.Debt.Equal(after.Debt))
			assert.True(t, sale.NewOverpayment.Equal(after.NewOverpayment))
			assert.True(t, balanceBefore.Equal(env.balance(t, client.ID)))
			assert.True(t, env.logSum(t, client.ID).Equal(env.balance(t, client.ID)))

			var deleted entity.Payment
			require.NoError(t, env.db.Unscoped().First(&deleted, "id = ?", res.Payment.ID).Error)
			assert.True(t, deleted.DeletedAt.Valid)
		})
	}
}

func TestDeletePayment_NotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.payments.DeletePayment(context.Background(), uuid.New(), nil)

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
