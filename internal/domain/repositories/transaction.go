package repositories

import "context"

// TxFn is the unit of work run by ExecTx. It must use the ctx it receives.
type TxFn func(ctx context.Context) error

// TransactionManager runs a unit of work atomically. Nested calls join the
// outer transaction.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
