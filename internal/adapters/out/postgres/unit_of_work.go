// Package postgres persists orders in PostgreSQL through gorm.
//
// A GormUnitOfWork wraps one database transaction. Repositories handed out by the
// unit of work run inside that transaction once Begin was called and directly on the
// connection pool before that, which is what the read-only expiry listing relies on.
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() {
//	    _ = uow.Rollback(ctx)
//	}()
//
//	if err := uow.OrderRepository().Update(ctx, machine.Status(), loadedVersion); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
//
// A unit of work is not safe for concurrent use. Two units of work writing the same
// order are told apart by the version column: the second Update fails with
// *errs.VersionConflictError.
package postgres

import (
	"context"

	"orderflow/internal/adapters/out/postgres/orderrepo"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"

	"gorm.io/gorm"
)

type writtenOrder struct {
	id       kernel.UUID
	snapshot any
}

// GormUnitOfWorkFactory hands out a fresh GormUnitOfWork per command.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork implements ports.UnitOfWork on a gorm transaction and remembers
// which orders were written through its repository.
type GormUnitOfWork struct {
	db      *gorm.DB
	tx      *gorm.DB
	written []writtenOrder
}

// Begin opens the transaction. Calling it again while a transaction is open does nothing.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	uow.tx = tx
	return nil
}

// Commit commits the open transaction. Without one it returns gorm.ErrInvalidTransaction.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards the open transaction and forgets the orders written in it.
// After a successful Commit it returns gorm.ErrInvalidTransaction, which the deferred
// rollback in command handlers ignores.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.written = nil
	return err
}

// OrderRepository returns a repository bound to the open transaction, or to the
// connection pool when Begin was not called.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	if uow.tx != nil {
		return orderrepo.NewGormOrderRepository(uow.tx, uow)
	}
	return orderrepo.NewGormOrderRepository(uow.db, uow)
}

// TrackAggregate is called by the order repository after every successful write.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, snapshot any) {
	uow.written = append(uow.written, writtenOrder{id: id, snapshot: snapshot})
}

// TrackedIDs returns the ids of the orders written so far, in write order.
func (uow *GormUnitOfWork) TrackedIDs() []kernel.UUID {
	ids := make([]kernel.UUID, 0, len(uow.written))
	for _, w := range uow.written {
		ids = append(ids, w.id)
	}
	return ids
}
