package repository

import (
	"context"
	"errors"

	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() billingdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*billingdomain.Billing, error) {
	var billing billingdomain.Billing
	err := db.WithContext(ctx).First(&billing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &billing, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id int64) (*billingdomain.Billing, error) {
	var billing billingdomain.Billing
	err := db.WithContext(ctx).Raw(
		`SELECT *
		 FROM billings
		 WHERE id = ? AND deleted_at IS NULL
		 FOR UPDATE`,
		id,
	).Scan(&billing).Error
	if err != nil {
		return nil, err
	}
	if billing.ID == 0 {
		return nil, nil
	}
	return &billing, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, req billingdomain.ListBillingsRequest) ([]billingdomain.Billing, error) {
	stmt := db.WithContext(ctx).Model(&billingdomain.Billing{}).Order("created_at DESC")

	if req.AccountID != 0 {
		stmt = stmt.Where("account_id = ?", req.AccountID)
	}
	if req.BillingStatusID != 0 {
		stmt = stmt.Where("billing_status_id = ?", req.BillingStatusID)
	}
	if req.BillingTypeID != 0 {
		stmt = stmt.Where("billing_type_id = ?", req.BillingTypeID)
	}

	var billings []billingdomain.Billing
	if err := stmt.Find(&billings).Error; err != nil {
		return nil, err
	}
	return billings, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, billing *billingdomain.Billing) error {
	return db.WithContext(ctx).Create(billing).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, billing *billingdomain.Billing) error {
	return db.WithContext(ctx).Save(billing).Error
}
