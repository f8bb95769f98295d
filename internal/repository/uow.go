package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/Code-Vida/apistock/internal/apierror"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// DefaultTxTimeout bounds a transaction when none is configured.
const DefaultTxTimeout = 5 * time.Second

type txKey struct{}

// UnitOfWork runs a sequence of repository calls atomically. fn receives the
// transaction handle and must pass it to every repository call it makes.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error
}

type gormUnitOfWork struct {
	db      *gorm.DB
	timeout time.Duration
	tracer  trace.Tracer
}

// NewUnitOfWork returns a UnitOfWork over db. A nil db runs fn with a nil
// transaction, which repository fakes in unit tests accept.
func NewUnitOfWork(db *gorm.DB, timeout time.Duration) UnitOfWork {
	if timeout <= 0 {
		timeout = DefaultTxTimeout
	}
	return &gormUnitOfWork{db: db, timeout: timeout, tracer: otel.Tracer("apistock/repository")}
}

// Run begins a transaction, calls fn, and commits when fn returns nil.
// Any error or panic rolls back; panics are re-raised after rollback.
// A call made while ctx already carries a transaction joins it, so one
// invocation never opens more than one transaction scope.
func (u *gormUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return fn(ctx, tx)
	}

	ctx, span := u.tracer.Start(ctx, "uow.run")
	defer span.End()

	if u.db == nil {
		return fn(ctx, nil)
	}

	txCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	err := u.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(txCtx, txKey{}, tx), tx)
	})
	if err != nil {
		err = classifyAbort(txCtx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// classifyAbort keeps classified errors intact and adds context to failures
// whose cause is not visible from the error itself.
func classifyAbort(ctx context.Context, err error) error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apierror.Infrastructure("transação abortada: tempo limite excedido", err)
	case errors.Is(err, sql.ErrTxDone), errors.Is(err, driver.ErrBadConn):
		return &apierror.Error{Kind: apierror.KindInfrastructure, Message: apierror.ErrTxAborted.Message, Err: err}
	}
	return err
}
