package service

import (
	"time"

	accountdomain "github.com/navlink/navlink/internal/account/domain"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	"github.com/samber/lo"
)

type snapshotTarget int

const (
	snapshotPrimary snapshotTarget = iota
	snapshotUpgrade
)

// buildSnapshot freezes the aggregate into a self-contained value document.
// Only interruptions intersecting the billing period are carried.
func buildSnapshot(agg accountdomain.Aggregate, period Period, capturedAt time.Time) billingdomain.SnapshotDocument {
	interruptions := agg.Interruptions
	if period.DateStart != nil && period.DateEnd != nil {
		interruptions = lo.Filter(agg.Interruptions, func(i accountdomain.Interruption, _ int) bool {
			return i.DateStart.Before(*period.DateEnd) && i.DateEnd.After(*period.DateStart)
		})
	}

	return billingdomain.SnapshotDocument{
		Version:          billingdomain.SnapshotVersion,
		AccountID:        agg.ID,
		CustomerName:     agg.CustomerName,
		CustomerEmail:    agg.CustomerEmail,
		PlanTypeID:       agg.PlanTypeID,
		PlanTypeName:     agg.PlanTypeName,
		PlanMbps:         agg.PlanMbps,
		PlanPrice:        agg.PlanPrice,
		LocationName:     agg.LocationName,
		SubscriptionName: agg.Subscription.Name,
		StatusName:       agg.Status.Name,
		InstalledDate:    agg.InstalledDate,
		Otcs: lo.Map(agg.Otcs, func(o accountdomain.OtcItem, _ int) billingdomain.SnapshotOtc {
			return billingdomain.SnapshotOtc{Name: o.Name, Amount: o.Amount}
		}),
		ContractPeriods: lo.Map(agg.ContractPeriods, func(cp accountdomain.Ref, _ int) billingdomain.SnapshotRef {
			return billingdomain.SnapshotRef{ID: cp.ID, Name: cp.Name}
		}),
		RemainingCredits: agg.RemainingCredits,
		Interruptions: lo.Map(interruptions, func(i accountdomain.Interruption, _ int) billingdomain.SnapshotInterruption {
			return billingdomain.SnapshotInterruption{DateStart: i.DateStart, DateEnd: i.DateEnd}
		}),
		CapturedAt: capturedAt,
	}
}

// applySnapshot writes the encoded document into the requested column.
func applySnapshot(billing *billingdomain.Billing, doc billingdomain.SnapshotDocument, target snapshotTarget) error {
	raw, err := billingdomain.EncodeSnapshot(doc)
	if err != nil {
		return err
	}
	switch target {
	case snapshotUpgrade:
		billing.UpgradeAccountSnapshot = raw
	default:
		billing.AccountSnapshot = raw
	}
	return nil
}
