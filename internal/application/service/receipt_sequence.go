package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"go.uber.org/zap"
)

// receiptLockKey guards receipt allocation across API instances
const receiptLockKey = "lock:receipt-sequence"

// ReceiptSequence issues zero-padded, monotonically increasing receipt numbers
type ReceiptSequence struct {
	saleRepo repository.SaleRepository
	logger   *zap.Logger
}

// NewReceiptSequence creates a new receipt sequence
func NewReceiptSequence(saleRepo repository.SaleRepository, logger *zap.Logger) *ReceiptSequence {
	return &ReceiptSequence{saleRepo: saleRepo, logger: logger}
}

// Next allocates the number following the highest one ever issued.
// Inside a transaction the counter stays locked until it ends, so a sale
// that rolls back gives its number back. Outside one the number is spent.
func (s *ReceiptSequence) Next(ctx context.Context) (string, error) {
	n, err := s.saleRepo.NextReceiptNumber(ctx)
	if err != nil {
		return "", apperror.NewInternalError(err)
	}
	return formatReceiptNumber(n), nil
}

// CheckSequence returns the numbers between 1 and the highest active
// receipt that no active sale carries. Deleted sales leave such gaps.
func (s *ReceiptSequence) CheckSequence(ctx context.Context) ([]string, error) {
	numbers, err := s.saleRepo.ActiveReceiptNumbers(ctx)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}

	seen := make(map[int]struct{}, len(numbers))
	highest := 0
	for _, number := range numbers {
		n, err := strconv.Atoi(number)
		if err != nil {
			s.logger.Warn("skipping malformed receipt number", zap.String("receipt_number", number))
			continue
		}
		seen[n] = struct{}{}
		highest = max(highest, n)
	}

	gaps := []string{}
	for n := 1; n <= highest; n++ {
		if _, ok := seen[n]; !ok {
			gaps = append(gaps, formatReceiptNumber(n))
		}
	}
	return gaps, nil
}

func formatReceiptNumber(n int) string {
	return fmt.Sprintf("%06d", n)
}
