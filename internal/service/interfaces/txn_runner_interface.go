package interfaces

import "context"

// TxnRunnerInterface executes fn inside one transaction: either every write
// fn performs commits, or none do. The context passed to fn must be used
// for all writes inside the transaction.
type TxnRunnerInterface interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
