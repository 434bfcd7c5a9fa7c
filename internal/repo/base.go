package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

// Base is embedded by the domain repositories. It carries either the pooled
// connection or a transaction handle.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle bound to ctx. A nil ctx returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bind returns a Base operating on tx.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// ForUpdate adds a row lock on dialects that support one.
func (b Base) ForUpdate(query *gorm.DB) *gorm.DB {
	if query.Dialector.Name() != "postgres" {
		return query
	}
	return query.Clauses(clause.Locking{Strength: "UPDATE"})
}

// NotFoundOr maps gorm.ErrRecordNotFound to notFound and any other failure
// to a dependency error carrying msg.
func NotFoundOr(err error, notFound error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
