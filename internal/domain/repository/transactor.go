package repository

import "context"

// Transactor runs fn inside a single database transaction.
// Repositories called with the ctx passed to fn take part in that
// transaction; a nested WithinTransaction joins the outer one.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// InTransaction reports whether ctx already carries a transaction,
	// in which case the outermost caller decides commit or rollback.
	InTransaction(ctx context.Context) bool
}
