package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles every repository bound to the same *gorm.DB, which is
// either the pool or an open transaction.
type Repositories struct {
	Users    UserRepository
	Products ProductRepository
	Carts    CartRepository
	Orders   OrderRepository
	Payments PaymentRepository
	Reviews  ReviewRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:    NewGormUserRepository(db),
		Products: NewGormProductRepository(db),
		Carts:    NewGormCartRepository(db),
		Orders:   NewGormOrderRepository(db),
		Payments: NewGormPaymentRepository(db),
		Reviews:  NewGormReviewRepository(db),
	}
}

// Transactor runs fn with repositories that share one database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

type GormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) WithTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
