package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Account, error)
	List(ctx context.Context, db *gorm.DB, req ListAccountsRequest) ([]Account, error)
	CutOff(ctx context.Context, db *gorm.DB, asOf time.Time) ([]Account, error)
	SumCredits(ctx context.Context, db *gorm.DB, accountID int64) (decimal.Decimal, error)
	InsertCredit(ctx context.Context, db *gorm.DB, credit *AccountCredit) error
	HasOverlappingInterruption(ctx context.Context, db *gorm.DB, accountID int64, start, end time.Time) (bool, error)
	InsertInterruption(ctx context.Context, db *gorm.DB, interruption *AccountServiceInterruption) error
	UpdatePlan(ctx context.Context, db *gorm.DB, accountID, plannedApplicationID int64) error
	FindPlannedApplication(ctx context.Context, db *gorm.DB, id int64) (*PlannedApplication, error)
}
