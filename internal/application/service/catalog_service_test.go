package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/application/service"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"github.com/sangkips/seedledger-api/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct_OpeningStockIsLogged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.products.CreateProduct(ctx, &service.CreateProductInput{
		Name:            "  Maize H6213 ",
		Price:           dec("250.00"),
		InitialQuantity: 40,
	})

	require.NoError(t, err)
	assert.Equal(t, "Maize H6213", product.Name)
	require.NotNil(t, product.Code)
	assert.True(t, strings.HasPrefix(*product.Code, "SEED-"))
	assert.Equal(t, 40, env.quantity(t, product.ID))

	movements, err := env.stock.Movements(ctx, &product.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, enum.MovementTypeProduction, movements[0].MovementType)
	assert.Equal(t, "opening stock", movements[0].Note)
}

func TestCreateProduct_WithoutStockHasZeroQuantity(t *testing.T) {
	env := newTestEnv(t)

	product := env.newProduct(t, "Beans", "10", 0)

	assert.Equal(t, 0, env.quantity(t, product.ID))
	assert.Equal(t, int64(0), env.countMovements(t, product.ID))
}

func TestCreateProduct_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.products.CreateProduct(ctx, &service.CreateProductInput{Name: "Peas", Code: "PEA-1", Price: dec("5")})
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   service.CreateProductInput
		wantErr *apperror.AppError
	}{
		{"blank name", service.CreateProductInput{Name: "  ", Price: dec("1")}, apperror.ErrInvalidArgument},
		{"negative price", service.CreateProductInput{Name: "X", Price: dec("-1")}, apperror.ErrInvalidArgument},
		{"negative opening stock", service.CreateProductInput{Name: "X", Price: dec("1"), InitialQuantity: -1}, apperror.ErrInvalidArgument},
		{"duplicate code", service.CreateProductInput{Name: "Peas again", Code: "PEA-1", Price: dec("1")}, apperror.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			_, err := env.products.CreateProduct(ctx, &input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newProduct(t, "Maize white", "10", 1)
	env.newProduct(t, "Maize yellow", "10", 1)
	env.newProduct(t, "Beans", "10", 1)

	result, err := env.products.ListProducts(ctx, &pagination.PaginationParams{Page: 1, PerPage: 10}, "maize")

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Pagination.Total)
	assert.Len(t, result.Items, 2)
}

func TestClients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	phone := "+254700000001"

	client, err := env.clients.CreateClient(ctx, &service.CreateClientInput{Name: "Kilimo Bora", Phone: &phone})
	require.NoError(t, err)
	assert.True(t, client.IsActive)
	assertDecimal(t, "0", client.CurrentOverpayment)

	found, err := env.clients.GetClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kilimo Bora", found.Name)

	_, err = env.clients.GetClient(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = env.clients.CreateClient(ctx, &service.CreateClientInput{Name: ""})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
}
