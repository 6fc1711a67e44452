package service

import (
	"testing"
	"time"

	accountdomain "github.com/navlink/navlink/internal/account/domain"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	"github.com/navlink/navlink/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiberAggregate(price int64) accountdomain.Aggregate {
	return accountdomain.Aggregate{
		ID:           1,
		CustomerName: "Juan Cruz",
		PlanTypeID:   accountdomain.PlannedApplicationTypeFiber,
		PlanTypeName: "Fiber",
		PlanMbps:     50,
		PlanPrice:    decimal.NewFromInt(price),
		LocationName: "Poblacion",
		Subscription: accountdomain.Ref{ID: 1, Name: "Postpaid"},
	}
}

func TestComputeParticulars_Installment_OtcsThenAdvance(t *testing.T) {
	agg := fiberAggregate(900)
	agg.Otcs = []accountdomain.OtcItem{
		{ID: 1, Name: "Installation Fee", Amount: decimal.NewFromInt(1500)},
		{ID: 2, Name: "Router", Amount: decimal.NewFromInt(100)},
	}
	agg.ContractPeriods = []accountdomain.Ref{
		{ID: accountdomain.ContractPeriodOneMonthAdvance, Name: "1 Month Advance"},
	}

	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	particulars, period, err := computeParticulars(agg, billingdomain.BillingTypeInstallment, "Installation Fee", now, config.DefaultBillingConfig())
	require.NoError(t, err)

	require.Len(t, particulars, 3)
	assert.Equal(t, "Installation Fee", particulars[0].Description)
	assert.Equal(t, "Router", particulars[1].Description)
	assert.Equal(t, "1 Month Advance", particulars[2].Description)
	assert.Equal(t, "900", particulars[2].Amount.String())
	assert.Equal(t, "2500.00", particulars.Total().StringFixed(2))

	// Installment billings carry no period dates.
	assert.Nil(t, period.DateStart)
	assert.Nil(t, period.DateEnd)
	assert.Nil(t, period.DateCutOff)
}

func TestComputeParticulars_Installment_NoAdvanceWithoutContractPeriod(t *testing.T) {
	agg := fiberAggregate(900)
	agg.Otcs = []accountdomain.OtcItem{
		{ID: 1, Name: "Installation Fee", Amount: decimal.NewFromInt(1500)},
	}

	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	particulars, _, err := computeParticulars(agg, billingdomain.BillingTypeInstallment, "Installation Fee", now, config.DefaultBillingConfig())
	require.NoError(t, err)

	require.Len(t, particulars, 1)
	assert.Equal(t, "1500.00", particulars.Total().StringFixed(2))
}

func TestComputeParticulars_Monthly_FiberPeriod(t *testing.T) {
	agg := fiberAggregate(900)

	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	particulars, period, err := computeParticulars(agg, billingdomain.BillingTypeMonthly, "Monthly Fee", now, config.DefaultBillingConfig())
	require.NoError(t, err)

	require.Len(t, particulars, 1)
	assert.Equal(t, "Monthly Fee", particulars[0].Description)
	assert.Equal(t, "900.00", particulars.Total().StringFixed(2))

	require.NotNil(t, period.DateStart)
	require.NotNil(t, period.DateEnd)
	require.NotNil(t, period.DateCutOff)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *period.DateStart)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *period.DateEnd)
	// Five grace days counted from Jan 31.
	assert.Equal(t, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), *period.DateCutOff)
}

func TestComputeParticulars_Monthly_P2PPeriod(t *testing.T) {
	agg := fiberAggregate(1200)
	agg.PlanTypeID = accountdomain.PlannedApplicationTypeP2P
	agg.PlanTypeName = "P2P"

	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	_, period, err := computeParticulars(agg, billingdomain.BillingTypeMonthly, "Monthly Fee", now, config.DefaultBillingConfig())
	require.NoError(t, err)

	require.NotNil(t, period.DateStart)
	assert.Equal(t, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), *period.DateStart)
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), *period.DateEnd)
	assert.Equal(t, time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC), *period.DateCutOff)
}

func TestComputeParticulars_Monthly_ProratedFirstCycle(t *testing.T) {
	agg := fiberAggregate(900)
	installed := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)
	agg.InstalledDate = &installed

	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	particulars, _, err := computeParticulars(agg, billingdomain.BillingTypeMonthly, "Monthly Fee", now, config.DefaultBillingConfig())
	require.NoError(t, err)

	// 21 of 31 days served: the adjustment claws back the 10 unserved days.
	require.Len(t, particulars, 2)
	assert.Equal(t, "Pro-rated Service Adjustment (10 day(s))", particulars[1].Description)
	assert.Equal(t, "-290.32", particulars[1].Amount.String())
	assert.Equal(t, "609.68", particulars.Total().StringFixed(2))
}

func TestComputeParticulars_Monthly_NoProrationWhenInstalledBeforePeriod(t *testing.T) {
	agg := fiberAggregate(900)
	installed := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	agg.InstalledDate = &installed

	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	particulars, _, err := computeParticulars(agg, billingdomain.BillingTypeMonthly, "Monthly Fee", now, config.DefaultBillingConfig())
	require.NoError(t, err)

	require.Len(t, particulars, 1)
	assert.Equal(t, "900.00", particulars.Total().StringFixed(2))
}

func TestComputeParticulars_Monthly_InterruptionDeduction(t *testing.T) {
	agg := fiberAggregate(900)
	agg.Interruptions = []accountdomain.Interruption{
		{
			ID:        1,
			DateStart: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			DateEnd:   time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
		},
	}

	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	particulars, _, err := computeParticulars(agg, billingdomain.BillingTypeMonthly, "Monthly Fee", now, config.DefaultBillingConfig())
	require.NoError(t, err)

	require.Len(t, particulars, 2)
	assert.Equal(t, "Service Interruptions (3 day(s))", particulars[1].Description)
	assert.Equal(t, "-87.10", particulars[1].Amount.String())
	assert.Equal(t, "812.90", particulars.Total().StringFixed(2))
}

func TestComputeParticulars_Monthly_InterruptionOutsideWindowIgnored(t *testing.T) {
	agg := fiberAggregate(900)
	agg.Interruptions = []accountdomain.Interruption{
		{
			// Straddles the period start, so it belongs to the previous cycle.
			ID:        1,
			DateStart: time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC),
			DateEnd:   time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		},
	}

	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	particulars, _, err := computeParticulars(agg, billingdomain.BillingTypeMonthly, "Monthly Fee", now, config.DefaultBillingConfig())
	require.NoError(t, err)

	require.Len(t, particulars, 1)
}

func TestComputeParticulars_UnknownBillingType(t *testing.T) {
	agg := fiberAggregate(900)

	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	_, _, err := computeParticulars(agg, 99, "Bogus", now, config.DefaultBillingConfig())
	assert.ErrorIs(t, err, billingdomain.ErrInvalidBillingType)
}

func TestComputeParticulars_Monthly_UnknownPlanTypeHasNoDates(t *testing.T) {
	agg := fiberAggregate(900)
	agg.PlanTypeID = 42

	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	particulars, period, err := computeParticulars(agg, billingdomain.BillingTypeMonthly, "Monthly Fee", now, config.DefaultBillingConfig())
	require.NoError(t, err)

	require.Len(t, particulars, 1)
	assert.Nil(t, period.DateStart)
	assert.Nil(t, period.DateEnd)
}
