// Package seed inserts the fixed reference rows the billing rules key on.
// Operator catalog data (locations, plans, subscriptions, one-time charges)
// is entered through the admin surface, never seeded.
package seed

import (
	"context"
	"errors"

	accountdomain "github.com/navlink/navlink/internal/account/domain"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureReferenceRows is idempotent: existing rows keep their names.
func EnsureReferenceRows(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		billingTypes := []billingdomain.BillingType{
			{ID: billingdomain.BillingTypeInstallment, Name: "Installation Fee"},
			{ID: billingdomain.BillingTypeMonthly, Name: "Monthly Fee"},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&billingTypes).Error; err != nil {
			return err
		}

		billingStatuses := []billingdomain.BillingStatus{
			{ID: billingdomain.BillingStatusPaid, Name: "Paid"},
			{ID: billingdomain.BillingStatusUnpaid, Name: "Unpaid"},
			{ID: billingdomain.BillingStatusPending, Name: "Pending"},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&billingStatuses).Error; err != nil {
			return err
		}

		accountStatuses := []accountdomain.AccountStatus{
			{ID: accountdomain.AccountStatusInstalled, Name: "Installed"},
			{ID: accountdomain.AccountStatusPending, Name: "Pending"},
			{ID: accountdomain.AccountStatusDisconnected, Name: "Disconnected"},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&accountStatuses).Error; err != nil {
			return err
		}

		planTypes := []accountdomain.PlannedApplicationType{
			{ID: accountdomain.PlannedApplicationTypeFiber, Name: "Fiber"},
			{ID: accountdomain.PlannedApplicationTypeP2P, Name: "P2P"},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&planTypes).Error; err != nil {
			return err
		}

		contractPeriods := []accountdomain.ContractPeriod{
			{ID: accountdomain.ContractPeriodOneMonthAdvance, Name: "1 Month Advance"},
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&contractPeriods).Error
	})
}
