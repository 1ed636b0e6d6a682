package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle owned by the storage adapter (pgx.Tx for Postgres).
type Tx interface{}

// NoTX runs a repository call outside any transaction.
var NoTX interface{}

// TransactionManager runs fn inside one transaction and commits when fn returns nil.
// Repositories given a non-nil tx lock the rows they read (SELECT ... FOR UPDATE), so
// every read-modify-write of an identity, profile, order or subscription goes through here.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
