package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions
type TransactionManager interface {
	// ExecTx runs fn in a transaction. fn's error rolls the transaction back;
	// a nil return commits it. Nested calls reuse the outer transaction.
	ExecTx(ctx context.Context, fn TxFn) error
}
