// Package reference serves the catalog rows the admin dropdowns are built
// from: billing types and statuses, account statuses, plan types, contract
// periods, subscriptions, locations, and the one-time-charge catalog.
package reference

import (
	"context"

	accountdomain "github.com/navlink/navlink/internal/account/domain"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	"github.com/navlink/navlink/pkg/db/option"
	"github.com/navlink/navlink/pkg/repository"
	"gorm.io/gorm"
)

type Service struct {
	billingTypes    repository.Repository[billingdomain.BillingType]
	billingStatuses repository.Repository[billingdomain.BillingStatus]
	accountStatuses repository.Repository[accountdomain.AccountStatus]
	planTypes       repository.Repository[accountdomain.PlannedApplicationType]
	contractPeriods repository.Repository[accountdomain.ContractPeriod]
	subscriptions   repository.Repository[accountdomain.Subscription]
	locations       repository.Repository[accountdomain.Location]
	otcs            repository.Repository[accountdomain.Otc]
}

func New(db *gorm.DB) *Service {
	return &Service{
		billingTypes:    repository.ProvideStore[billingdomain.BillingType](db),
		billingStatuses: repository.ProvideStore[billingdomain.BillingStatus](db),
		accountStatuses: repository.ProvideStore[accountdomain.AccountStatus](db),
		planTypes:       repository.ProvideStore[accountdomain.PlannedApplicationType](db),
		contractPeriods: repository.ProvideStore[accountdomain.ContractPeriod](db),
		subscriptions:   repository.ProvideStore[accountdomain.Subscription](db),
		locations:       repository.ProvideStore[accountdomain.Location](db),
		otcs:            repository.ProvideStore[accountdomain.Otc](db),
	}
}

// Catalog is every dropdown source in one payload; the admin panel loads it
// once per session.
type Catalog struct {
	BillingTypes    []*billingdomain.BillingType            `json:"billingTypes"`
	BillingStatuses []*billingdomain.BillingStatus          `json:"billingStatuses"`
	AccountStatuses []*accountdomain.AccountStatus          `json:"accountStatuses"`
	PlanTypes       []*accountdomain.PlannedApplicationType `json:"planTypes"`
	ContractPeriods []*accountdomain.ContractPeriod         `json:"contractPeriods"`
	Subscriptions   []*accountdomain.Subscription           `json:"subscriptions"`
	Locations       []*accountdomain.Location               `json:"locations"`
	Otcs            []*accountdomain.Otc                    `json:"otcs"`
}

func byName() option.QueryOption {
	return option.WithSortBy(option.WithQuerySortBy("name", "asc", map[string]bool{"name": true, "id": true}))
}

func (s *Service) Catalog(ctx context.Context) (Catalog, error) {
	var catalog Catalog
	var err error

	if catalog.BillingTypes, err = s.billingTypes.Find(ctx, &billingdomain.BillingType{}, byName()); err != nil {
		return Catalog{}, err
	}
	if catalog.BillingStatuses, err = s.billingStatuses.Find(ctx, &billingdomain.BillingStatus{}, byName()); err != nil {
		return Catalog{}, err
	}
	if catalog.AccountStatuses, err = s.accountStatuses.Find(ctx, &accountdomain.AccountStatus{}, byName()); err != nil {
		return Catalog{}, err
	}
	if catalog.PlanTypes, err = s.planTypes.Find(ctx, &accountdomain.PlannedApplicationType{}, byName()); err != nil {
		return Catalog{}, err
	}
	if catalog.ContractPeriods, err = s.contractPeriods.Find(ctx, &accountdomain.ContractPeriod{}, byName()); err != nil {
		return Catalog{}, err
	}
	if catalog.Subscriptions, err = s.subscriptions.Find(ctx, &accountdomain.Subscription{}, byName()); err != nil {
		return Catalog{}, err
	}
	if catalog.Locations, err = s.locations.Find(ctx, &accountdomain.Location{}, byName()); err != nil {
		return Catalog{}, err
	}
	if catalog.Otcs, err = s.otcs.Find(ctx, &accountdomain.Otc{}, byName()); err != nil {
		return Catalog{}, err
	}

	return catalog, nil
}
