// Package domain contains persistence models for subscriber accounts.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Planned application type reference rows.
const (
	PlannedApplicationTypeFiber int64 = 1
	PlannedApplicationTypeP2P   int64 = 2
)

// Account status reference rows.
const (
	AccountStatusInstalled    int64 = 1
	AccountStatusPending      int64 = 2
	AccountStatusDisconnected int64 = 3
)

// Contract period reference rows.
const (
	ContractPeriodOneMonthAdvance int64 = 1
)

type Customer struct {
	ID            int64     `gorm:"primaryKey"`
	FirstName     string    `gorm:"type:text;not null"`
	LastName      string    `gorm:"type:text;not null"`
	Email         *string   `gorm:""`
	ContactNumber *string   `gorm:""`
	Barangay      *string   `gorm:""`
	City          *string   `gorm:""`
	Province      *string   `gorm:""`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Customer) TableName() string { return "customers" }

func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

type Location struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null"`
}

func (Location) TableName() string { return "locations" }

type PlannedApplicationType struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null"`
}

func (PlannedApplicationType) TableName() string { return "planned_application_types" }

// PlannedApplication is a sellable plan: a speed tier priced for a location.
type PlannedApplication struct {
	ID                       int64           `gorm:"primaryKey"`
	LocationID               int64           `gorm:"not null;index"`
	PlannedApplicationTypeID int64           `gorm:"not null;index"`
	Mbps                     int64           `gorm:"not null"`
	Price                    decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	Location               Location               `gorm:"foreignKey:LocationID"`
	PlannedApplicationType PlannedApplicationType `gorm:"foreignKey:PlannedApplicationTypeID"`
}

func (PlannedApplication) TableName() string { return "planned_applications" }

type Subscription struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null"`
}

func (Subscription) TableName() string { return "subscriptions" }

type AccountStatus struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null"`
}

func (AccountStatus) TableName() string { return "account_statuses" }

// Otc is a one-time charge from the installation catalog.
type Otc struct {
	ID     int64           `gorm:"primaryKey"`
	Name   string          `gorm:"type:text;not null"`
	Amount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (Otc) TableName() string { return "otcs" }

type ContractPeriod struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null"`
}

func (ContractPeriod) TableName() string { return "contract_periods" }

type Account struct {
	ID                   int64          `gorm:"primaryKey"`
	CustomerID           int64          `gorm:"not null;index"`
	PlannedApplicationID int64          `gorm:"not null;index"`
	SubscriptionID       int64          `gorm:"not null;index"`
	AccountStatusID      int64          `gorm:"not null;index"`
	InstalledDate        *time.Time     `gorm:""`
	CreatedAt            time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt            time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt            gorm.DeletedAt `gorm:"index"`

	Customer           Customer           `gorm:"foreignKey:CustomerID"`
	PlannedApplication PlannedApplication `gorm:"foreignKey:PlannedApplicationID"`
	Subscription       Subscription       `gorm:"foreignKey:SubscriptionID"`
	AccountStatus      AccountStatus      `gorm:"foreignKey:AccountStatusID"`
	Otcs               []Otc              `gorm:"many2many:account_otc"`
	ContractPeriods    []ContractPeriod   `gorm:"many2many:account_contract_period"`

	Credits       []AccountCredit              `gorm:"foreignKey:AccountID"`
	Interruptions []AccountServiceInterruption `gorm:"foreignKey:AccountID"`
}

func (Account) TableName() string { return "accounts" }

// AccountCredit is one signed ledger entry; the balance is always SUM(amount).
type AccountCredit struct {
	ID        int64           `gorm:"primaryKey"`
	AccountID int64           `gorm:"not null;index"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AccountCredit) TableName() string { return "account_credits" }

type AccountServiceInterruption struct {
	ID        int64     `gorm:"primaryKey"`
	AccountID int64     `gorm:"not null;index"`
	DateStart time.Time `gorm:"not null"`
	DateEnd   time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AccountServiceInterruption) TableName() string { return "account_service_interruptions" }
