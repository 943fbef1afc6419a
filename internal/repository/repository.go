package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/industria/api/internal/database"
)

// PostgreSQL error codes mapped to repository errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

var (
	// ErrNotFound is returned by writes that target a missing row.
	// Reads return nil, nil instead.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")

	// ErrMissingReference is returned when a foreign key target does not exist.
	ErrMissingReference = errors.New("referenced record does not exist")

	// ErrConstraint is returned when a row fails a CHECK constraint.
	ErrConstraint = errors.New("constraint violation")
)

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so every
// repository can run either on the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Zones   ZoneRepository
	Parcels ParcelRepository
}

// NewRepositories binds all repositories to db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Zones:   NewZoneRepository(db),
		Parcels: NewParcelRepository(db),
	}
}

// UnitOfWork runs a function against repositories that share one transaction.
type UnitOfWork interface {
	// Do commits when fn returns nil and rolls back every write otherwise.
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type unitOfWork struct {
	db *database.Database
}

// NewUnitOfWork creates a UnitOfWork backed by READ COMMITTED pgx transactions.
func NewUnitOfWork(db *database.Database) UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return u.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// translateError maps constraint violations onto repository errors while
// keeping the driver error in the chain.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return errors.Join(ErrDuplicate, err)
	case pgForeignKeyViolation:
		return errors.Join(ErrMissingReference, err)
	case pgCheckViolation:
		return errors.Join(ErrConstraint, err)
	default:
		return err
	}
}
