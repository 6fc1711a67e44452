package service

import (
	"fmt"
	"time"

	accountdomain "github.com/navlink/navlink/internal/account/domain"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	"github.com/navlink/navlink/internal/config"
	"github.com/shopspring/decimal"
)

// Period carries the billing window computed alongside the particulars.
// All three dates are absent for installment billings and unknown plan
// categories.
type Period struct {
	DateStart  *time.Time
	DateEnd    *time.Time
	DateCutOff *time.Time
}

// computeParticulars derives the ordered line items and period for a new
// billing from the live account aggregate. Pure: no reads, no writes. It is
// never called against a frozen snapshot.
func computeParticulars(
	agg accountdomain.Aggregate,
	billingTypeID int64,
	billingTypeName string,
	now time.Time,
	cfg config.BillingConfig,
) (billingdomain.Particulars, Period, error) {
	switch billingTypeID {
	case billingdomain.BillingTypeInstallment:
		return installmentParticulars(agg), Period{}, nil
	case billingdomain.BillingTypeMonthly:
		particulars, period := monthlyParticulars(agg, billingTypeName, now, cfg)
		return particulars, period, nil
	default:
		return nil, Period{}, billingdomain.ErrInvalidBillingType
	}
}

// installmentParticulars emits one line per one-time charge in association
// order, plus the advance-payment line when the account carries the
// one-month-advance contract period.
func installmentParticulars(agg accountdomain.Aggregate) billingdomain.Particulars {
	particulars := make(billingdomain.Particulars, 0, len(agg.Otcs)+1)

	for _, otc := range agg.Otcs {
		particulars = append(particulars, billingdomain.Particular{
			Description: otc.Name,
			Amount:      otc.Amount.Round(2),
		})
	}

	if cp, ok := agg.ContractPeriod(accountdomain.ContractPeriodOneMonthAdvance); ok {
		particulars = append(particulars, billingdomain.Particular{
			Description: cp.Name,
			Amount:      agg.PlanPrice.Round(2),
		})
	}

	return particulars
}

func monthlyParticulars(
	agg accountdomain.Aggregate,
	billingTypeName string,
	now time.Time,
	cfg config.BillingConfig,
) (billingdomain.Particulars, Period) {
	period := monthlyPeriod(agg, now, cfg)

	particulars := billingdomain.Particulars{
		{Description: billingTypeName, Amount: agg.MonthlyRate().Round(2)},
	}

	if period.DateStart == nil || period.DateEnd == nil {
		return particulars, period
	}

	totalDays := daysBetween(*period.DateStart, *period.DateEnd)
	rate := dailyRate(agg.MonthlyRate(), totalDays)

	// Pro-rated first cycle: installation landed after the nominal start.
	if agg.InstalledDate != nil && agg.InstalledDate.After(*period.DateStart) {
		served := proratedDays(*agg.InstalledDate, *period.DateEnd)
		proratedAmount := rate.Mul(served)
		nonServiceDays := decimal.NewFromInt(totalDays).Sub(served)

		particulars = append(particulars, billingdomain.Particular{
			Description: fmt.Sprintf("Pro-rated Service Adjustment (%s day(s))", nonServiceDays.String()),
			Amount:      agg.MonthlyRate().Sub(proratedAmount).Round(2).Neg(),
		})
	}

	if interrupted := interruptedDays(agg.Interruptions, *period.DateStart, *period.DateEnd); interrupted > 0 {
		particulars = append(particulars, billingdomain.Particular{
			Description: fmt.Sprintf("Service Interruptions (%d day(s))", interrupted),
			Amount:      rate.Mul(decimal.NewFromInt(interrupted)).Round(2).Neg(),
		})
	}

	return particulars, period
}

func monthlyPeriod(agg accountdomain.Aggregate, now time.Time, cfg config.BillingConfig) Period {
	switch {
	case agg.IsFiber():
		start := startOfMonth(now)
		end := startOfNextMonth(now)
		// Grace days count from the last calendar day of the month.
		cutOff := end.AddDate(0, 0, cfg.FiberCutOffGraceDays-1)
		return Period{DateStart: &start, DateEnd: &end, DateCutOff: &cutOff}
	case agg.IsP2P():
		start := startOfPreviousMonth(now).AddDate(0, 0, cfg.P2PAnchorDay)
		end := startOfMonth(now).AddDate(0, 0, cfg.P2PAnchorDay)
		cutOff := startOfMonth(now).AddDate(0, 0, cfg.P2PCutOffDay)
		return Period{DateStart: &start, DateEnd: &end, DateCutOff: &cutOff}
	default:
		return Period{}
	}
}

// interruptedDays sums the day spans of interruptions falling wholly inside
// the billing window.
func interruptedDays(interruptions []accountdomain.Interruption, start, end time.Time) int64 {
	var total int64
	for _, interruption := range interruptions {
		if interruption.DateStart.Before(start) || interruption.DateEnd.After(end) {
			continue
		}
		total += daysBetween(interruption.DateStart, interruption.DateEnd)
	}
	return total
}
