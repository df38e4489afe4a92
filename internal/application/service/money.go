package service

import (
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// Money is stored as decimal(20,2)
const moneyPlaces = 2

func checkMoney(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(moneyPlaces)) {
		return apperror.NewInvalidArgumentError("%s must have at most %d decimal places", field, moneyPlaces)
	}
	return nil
}

func requirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.NewInvalidArgumentError("%s must be positive, got %s", field, amount)
	}
	return checkMoney(field, amount)
}

func requireNonNegative(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperror.NewInvalidArgumentError("%s must not be negative, got %s", field, amount)
	}
	return checkMoney(field, amount)
}

func floorZero(amount decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, amount)
}
