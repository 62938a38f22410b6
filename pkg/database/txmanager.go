package database

import (
	"context"
	"database/sql"
	"errors"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/lib/pq"
)

type DB struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
}

func NewDB(db *sql.DB) *DB {
	return &DB{
		db:     db,
		getter: trmsql.DefaultCtxGetter,
	}
}

func (db *DB) Conn(ctx context.Context) trmsql.Tr {
	return db.getter.DefaultTrOrDB(ctx, db.db)
}

type TransactionManagerInterface interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type TransactionManager struct {
	manager *manager.Manager
}

func NewTransactionManager(db *sql.DB) (*TransactionManager, error) {
	trManager, err := manager.New(trmsql.NewDefaultFactory(db))

	if err != nil {
		return nil, err
	}

	return &TransactionManager{manager: trManager}, nil
}

// Do runs fn inside a transaction. Serialization and deadlock conflicts are
// retried exactly once; every other error surfaces to the caller untouched.
func (tm *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	err := tm.manager.Do(ctx, fn)
	if isSerializationFailure(err) {
		return tm.manager.Do(ctx, fn)
	}
	return err
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
