package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound                = errors.New("account_not_found")
	ErrInvalidDateRange        = errors.New("invalid_date_range")
	ErrOverlappingInterruption = errors.New("overlapping_interruption")
)

// Ref is a resolved reference row carried inside an Aggregate.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type OtcItem struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type Interruption struct {
	ID        int64     `json:"id"`
	DateStart time.Time `json:"dateStart"`
	DateEnd   time.Time `json:"dateEnd"`
}

// Aggregate is the read model the billing engine consumes: every reference
// on the account resolved to values, in one shot. It is never written back.
type Aggregate struct {
	ID                   int64           `json:"id"`
	CustomerName         string          `json:"customerName"`
	CustomerEmail        *string         `json:"customerEmail,omitempty"`
	PlannedApplicationID int64           `json:"plannedApplicationId"`
	PlanTypeID           int64           `json:"planTypeId"`
	PlanTypeName         string          `json:"planTypeName"`
	PlanMbps             int64           `json:"planMbps"`
	PlanPrice            decimal.Decimal `json:"planPrice"`
	LocationName         string          `json:"locationName"`
	Subscription         Ref             `json:"subscription"`
	Status               Ref             `json:"status"`
	InstalledDate        *time.Time      `json:"installedDate,omitempty"`
	Otcs                 []OtcItem       `json:"otcs"`
	ContractPeriods      []Ref           `json:"contractPeriods"`
	RemainingCredits     decimal.Decimal `json:"remainingCredits"`
	Interruptions        []Interruption  `json:"interruptions"`
}

// MonthlyRate is the recurring charge for the account's current plan.
func (a Aggregate) MonthlyRate() decimal.Decimal { return a.PlanPrice }

func (a Aggregate) IsFiber() bool { return a.PlanTypeID == PlannedApplicationTypeFiber }

func (a Aggregate) IsP2P() bool { return a.PlanTypeID == PlannedApplicationTypeP2P }

func (a Aggregate) HasContractPeriod(id int64) bool {
	return lo.ContainsBy(a.ContractPeriods, func(cp Ref) bool { return cp.ID == id })
}

func (a Aggregate) ContractPeriod(id int64) (Ref, bool) {
	return lo.Find(a.ContractPeriods, func(cp Ref) bool { return cp.ID == id })
}

// Details renders the account summary line, e.g. "Juan Cruz: Postpaid - Poblacion".
func (a Aggregate) Details() string {
	return fmt.Sprintf("%s: %s - %s", a.CustomerName, a.Subscription.Name, a.LocationName)
}

func (a Aggregate) OtcDetails() string {
	return strings.Join(lo.Map(a.Otcs, func(o OtcItem, _ int) string { return o.Name }), ", ")
}

func (a Aggregate) ContractPeriodDetails() string {
	return strings.Join(lo.Map(a.ContractPeriods, func(cp Ref, _ int) string { return cp.Name }), ", ")
}

// AggregateFromAccount assembles the read model from a fully preloaded
// account row and its credit sum.
func AggregateFromAccount(account Account, credits decimal.Decimal) Aggregate {
	return Aggregate{
		ID:                   account.ID,
		CustomerName:         account.Customer.FullName(),
		CustomerEmail:        account.Customer.Email,
		PlannedApplicationID: account.PlannedApplication.ID,
		PlanTypeID:           account.PlannedApplication.PlannedApplicationTypeID,
		PlanTypeName:         account.PlannedApplication.PlannedApplicationType.Name,
		PlanMbps:             account.PlannedApplication.Mbps,
		PlanPrice:            account.PlannedApplication.Price,
		LocationName:         account.PlannedApplication.Location.Name,
		Subscription:         Ref{ID: account.Subscription.ID, Name: account.Subscription.Name},
		Status:               Ref{ID: account.AccountStatus.ID, Name: account.AccountStatus.Name},
		InstalledDate:        account.InstalledDate,
		Otcs: lo.Map(account.Otcs, func(o Otc, _ int) OtcItem {
			return OtcItem{ID: o.ID, Name: o.Name, Amount: o.Amount}
		}),
		ContractPeriods: lo.Map(account.ContractPeriods, func(cp ContractPeriod, _ int) Ref {
			return Ref{ID: cp.ID, Name: cp.Name}
		}),
		RemainingCredits: credits,
		Interruptions: lo.Map(account.Interruptions, func(i AccountServiceInterruption, _ int) Interruption {
			return Interruption{ID: i.ID, DateStart: i.DateStart, DateEnd: i.DateEnd}
		}),
	}
}

type AddServiceInterruptionRequest struct {
	AccountID int64     `json:"accountId"`
	DateStart time.Time `json:"dateStart" binding:"required"`
	DateEnd   time.Time `json:"dateEnd" binding:"required"`
}

type ListAccountsRequest struct {
	NotDisconnected     bool `form:"notDisconnected"`
	HasRemainingCredits bool `form:"hasRemainingCredits"`
}

type Service interface {
	GetAggregate(ctx context.Context, id int64) (Aggregate, error)
	RemainingCredits(ctx context.Context, accountID int64) (decimal.Decimal, error)
	AddServiceInterruption(ctx context.Context, req AddServiceInterruptionRequest) (AccountServiceInterruption, error)
	List(ctx context.Context, req ListAccountsRequest) ([]Aggregate, error)
	CutOffAccounts(ctx context.Context, asOf time.Time) ([]Aggregate, error)
}
