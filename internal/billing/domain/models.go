// Package domain contains persistence models and derived reads for billings.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Billing type reference rows.
const (
	BillingTypeInstallment int64 = 1
	BillingTypeMonthly     int64 = 2
)

// Billing status reference rows.
const (
	BillingStatusPaid    int64 = 1
	BillingStatusUnpaid  int64 = 2
	BillingStatusPending int64 = 3
)

// Payment methods recorded on settlement.
const (
	PaymentMethodCash   = "cash"
	PaymentMethodCredit = "credit"
	PaymentMethodGcash  = "gcash"
)

type BillingType struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null"`
}

func (BillingType) TableName() string { return "billing_types" }

type BillingStatus struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:text;not null"`
}

func (BillingStatus) TableName() string { return "billing_statuses" }

type Billing struct {
	ID                      int64          `gorm:"primaryKey"`
	AccountID               int64          `gorm:"not null;index"`
	BillingTypeID           int64          `gorm:"not null;index"`
	BillingStatusID         int64          `gorm:"not null;index;default:2"`
	DateStart               *time.Time     `gorm:""`
	DateEnd                 *time.Time     `gorm:""`
	DateCutOff              *time.Time     `gorm:""`
	Particulars             datatypes.JSON `gorm:"not null"`
	AccountSnapshot         datatypes.JSON `gorm:""`
	UpgradeAccountSnapshot  datatypes.JSON `gorm:""`
	PaymongoReferenceNumber *string        `gorm:""`
	PaymentMethod           *string        `gorm:""`
	NotifiedAt              *time.Time     `gorm:""`
	CreatedAt               time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt               time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt               gorm.DeletedAt `gorm:"index"`

	BillingTypeRef   BillingType   `gorm:"foreignKey:BillingTypeID"`
	BillingStatusRef BillingStatus `gorm:"foreignKey:BillingStatusID"`
}

func (Billing) TableName() string { return "billings" }

func (b Billing) IsPaid() bool { return b.BillingStatusID == BillingStatusPaid }

func (b Billing) IsUnpaid() bool { return b.BillingStatusID == BillingStatusUnpaid }

func (b Billing) IsPending() bool { return b.BillingStatusID == BillingStatusPending }

func (b Billing) IsInstallment() bool { return b.BillingTypeID == BillingTypeInstallment }

func (b Billing) IsMonthly() bool { return b.BillingTypeID == BillingTypeMonthly }

// ParticularLines decodes the stored particulars, tolerating nothing: callers
// that need to surface decode failures use DecodeParticulars directly.
func (b Billing) ParticularLines() (Particulars, error) {
	return DecodeParticulars(b.Particulars)
}

// ParticularDetails renders one "description: amount" line per particular,
// newline-joined, in stored order.
func (b Billing) ParticularDetails() (string, error) {
	particulars, err := DecodeParticulars(b.Particulars)
	if err != nil {
		return "", err
	}
	lines := lo.Map(particulars, func(p Particular, _ int) string {
		return fmt.Sprintf("%s: %s", p.Description, p.Amount.StringFixed(2))
	})
	return strings.Join(lines, "\n"), nil
}

// BillingPeriodDetails renders the covered period, empty for installment
// billings which carry no dates.
func (b Billing) BillingPeriodDetails() string {
	if b.DateStart == nil || b.DateEnd == nil {
		return ""
	}
	return fmt.Sprintf("%s - %s", b.DateStart.Format("Jan 2, 2006"), b.DateEnd.Format("Jan 2, 2006"))
}

func (b Billing) Month() time.Month {
	if b.DateStart == nil {
		return b.CreatedAt.Month()
	}
	return b.DateStart.Month()
}

func (b Billing) Year() int {
	if b.DateStart == nil {
		return b.CreatedAt.Year()
	}
	return b.DateStart.Year()
}
