package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// WithTx runs fn inside a transaction and stores it in ctx so that any
// DB method called with the returned context reuses the same
// transaction instead of opening a new connection. Used by operations
// whose writes must commit together, such as payroll generation
// inserting a payroll row and locking the attendance rows behind it.
func (db *DB) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		txCtx := context.WithValue(ctx, txKey{}, tx)
		return fn(txCtx)
	})
}

// getTx extracts the transaction stored in ctx, if any.
func (db *DB) getTx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}
