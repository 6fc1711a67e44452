package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Billing, error)
	// FindByIDForUpdate takes a row lock; call inside a transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id int64) (*Billing, error)
	List(ctx context.Context, db *gorm.DB, req ListBillingsRequest) ([]Billing, error)
	Insert(ctx context.Context, db *gorm.DB, billing *Billing) error
	Update(ctx context.Context, db *gorm.DB, billing *Billing) error
}
