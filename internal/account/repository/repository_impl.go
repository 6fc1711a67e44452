package repository

import (
	"context"
	"errors"
	"time"

	accountdomain "github.com/navlink/navlink/internal/account/domain"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() accountdomain.Repository {
	return &repo{}
}

func preloaded(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("PlannedApplication").
		Preload("PlannedApplication.Location").
		Preload("PlannedApplication.PlannedApplicationType").
		Preload("Subscription").
		Preload("AccountStatus").
		Preload("Otcs").
		Preload("ContractPeriods").
		Preload("Interruptions")
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*accountdomain.Account, error) {
	var account accountdomain.Account
	err := preloaded(db.WithContext(ctx)).First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// List orders by the customer's last then first name, the fixed ordering the
// admin screens rely on.
func (r *repo) List(ctx context.Context, db *gorm.DB, req accountdomain.ListAccountsRequest) ([]accountdomain.Account, error) {
	stmt := preloaded(db.WithContext(ctx)).
		Joins("JOIN customers ON customers.id = accounts.customer_id").
		Order("customers.last_name ASC, customers.first_name ASC")

	if req.NotDisconnected {
		stmt = stmt.Where("accounts.account_status_id <> ?", accountdomain.AccountStatusDisconnected)
	}
	if req.HasRemainingCredits {
		stmt = stmt.Where(
			"(SELECT COALESCE(SUM(amount), 0) FROM account_credits WHERE account_credits.account_id = accounts.id) > 0",
		)
	}

	var accounts []accountdomain.Account
	if err := stmt.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// CutOff returns accounts still holding an unpaid monthly billing whose
// cut-off date has lapsed.
func (r *repo) CutOff(ctx context.Context, db *gorm.DB, asOf time.Time) ([]accountdomain.Account, error) {
	var accounts []accountdomain.Account
	err := preloaded(db.WithContext(ctx)).
		Where("accounts.account_status_id <> ?", accountdomain.AccountStatusDisconnected).
		Where(`EXISTS (
			SELECT 1 FROM billings
			WHERE billings.account_id = accounts.id
			  AND billings.billing_type_id = ?
			  AND billings.billing_status_id = ?
			  AND billings.date_cut_off < ?
			  AND billings.deleted_at IS NULL
		)`, billingdomain.BillingTypeMonthly, billingdomain.BillingStatusUnpaid, asOf).
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) SumCredits(ctx context.Context, db *gorm.DB, accountID int64) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := db.WithContext(ctx).
		Model(&accountdomain.AccountCredit{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("account_id = ?", accountID).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repo) InsertCredit(ctx context.Context, db *gorm.DB, credit *accountdomain.AccountCredit) error {
	return db.WithContext(ctx).Create(credit).Error
}

func (r *repo) HasOverlappingInterruption(ctx context.Context, db *gorm.DB, accountID int64, start, end time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&accountdomain.AccountServiceInterruption{}).
		Where("account_id = ?", accountID).
		Where("date_start < ? AND date_end > ?", end, start).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) InsertInterruption(ctx context.Context, db *gorm.DB, interruption *accountdomain.AccountServiceInterruption) error {
	return db.WithContext(ctx).Create(interruption).Error
}

func (r *repo) UpdatePlan(ctx context.Context, db *gorm.DB, accountID, plannedApplicationID int64) error {
	return db.WithContext(ctx).
		Model(&accountdomain.Account{}).
		Where("id = ?", accountID).
		Update("planned_application_id", plannedApplicationID).Error
}

func (r *repo) FindPlannedApplication(ctx context.Context, db *gorm.DB, id int64) (*accountdomain.PlannedApplication, error) {
	var plan accountdomain.PlannedApplication
	err := db.WithContext(ctx).First(&plan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}
