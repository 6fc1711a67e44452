package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/navlink/navlink/internal/account/domain"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	"github.com/navlink/navlink/internal/clock"
	"github.com/navlink/navlink/internal/config"
	"github.com/navlink/navlink/internal/observability/metrics"
	paymentdomain "github.com/navlink/navlink/internal/payment/domain"
	"github.com/navlink/navlink/internal/ratelimit"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	depositCreditLabel = "Deposit Account Credit"
	payLockTTL         = 30 * time.Second
)

// Notifier delivers the new-bill email; satisfied by notification.BillNotifier.
type Notifier interface {
	NotifyNewBill(ctx context.Context, to, customerName string, billing billingdomain.Billing) error
}

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       billingdomain.Repository
	Accounts   accountdomain.Repository
	BillingCfg *config.BillingConfigHolder
	Notifier   Notifier
	Gateway    paymentdomain.Gateway `optional:"true"`
	Locker     *ratelimit.Locker     `optional:"true"`
	Metrics    *metrics.Metrics      `optional:"true"`
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       billingdomain.Repository
	accounts   accountdomain.Repository
	billingCfg *config.BillingConfigHolder
	notifier   Notifier
	gateway    paymentdomain.Gateway
	locker     *ratelimit.Locker
	metrics    *metrics.Metrics
}

func New(p ServiceParam) billingdomain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("billing.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		accounts:   p.Accounts,
		billingCfg: p.BillingCfg,
		notifier:   p.Notifier,
		gateway:    p.Gateway,
		locker:     p.Locker,
		metrics:    p.Metrics,
	}
}

// Create computes particulars, freezes the primary snapshot, and persists the
// billing as Unpaid, all in one transaction. The notification afterwards is
// best effort.
func (s *service) Create(ctx context.Context, req billingdomain.CreateBillingRequest) (billingdomain.Billing, error) {
	var billing billingdomain.Billing

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agg, _, err := s.aggregate(ctx, tx, req.AccountID)
		if err != nil {
			return err
		}

		billingType, err := s.findBillingType(ctx, tx, req.BillingTypeID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		particulars, period, err := computeParticulars(agg, req.BillingTypeID, billingType.Name, now, s.billingCfg.Get())
		if err != nil {
			return err
		}

		rawParticulars, err := billingdomain.EncodeParticulars(particulars)
		if err != nil {
			return err
		}

		billing = billingdomain.Billing{
			ID:              s.genID.Generate().Int64(),
			AccountID:       req.AccountID,
			BillingTypeID:   req.BillingTypeID,
			BillingStatusID: billingdomain.BillingStatusUnpaid,
			DateStart:       period.DateStart,
			DateEnd:         period.DateEnd,
			DateCutOff:      period.DateCutOff,
			Particulars:     rawParticulars,
		}

		if err := applySnapshot(&billing, buildSnapshot(agg, period, now), snapshotPrimary); err != nil {
			return err
		}

		return s.repo.Insert(ctx, tx, &billing)
	})
	if err != nil {
		return billingdomain.Billing{}, err
	}

	s.metrics.BillingCreated(billingTypeLabel(billing.BillingTypeID))
	s.notifyNewBill(ctx, &billing)

	return billing, nil
}

func (s *service) Get(ctx context.Context, id int64) (billingdomain.Billing, error) {
	billing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return billingdomain.Billing{}, err
	}
	if billing == nil {
		return billingdomain.Billing{}, billingdomain.ErrBillingNotFound
	}
	return *billing, nil
}

func (s *service) List(ctx context.Context, req billingdomain.ListBillingsRequest) ([]billingdomain.Billing, error) {
	return s.repo.List(ctx, s.db, req)
}

// Pay settles the billing with cash. When the account carries the
// one-month-advance contract period, matching particulars become positive
// account credits in the same transaction.
func (s *service) Pay(ctx context.Context, id int64) (billingdomain.Billing, error) {
	release, fenced, err := s.fencePay(ctx, id)
	if err != nil {
		return billingdomain.Billing{}, err
	}
	if fenced {
		defer release()
	}

	var billing billingdomain.Billing
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lockUnpaid(ctx, tx, id)
		if err != nil {
			return err
		}

		locked.BillingStatusID = billingdomain.BillingStatusPaid
		locked.PaymentMethod = ptr(billingdomain.PaymentMethodCash)
		if err := s.repo.Update(ctx, tx, locked); err != nil {
			return err
		}

		if err := s.creditQualifyingParticulars(ctx, tx, locked); err != nil {
			return err
		}

		billing = *locked
		return nil
	})
	if err != nil {
		return billingdomain.Billing{}, err
	}

	s.metrics.PaymentRecorded(billingdomain.PaymentMethodCash)
	return billing, nil
}

// PayUsingCredit settles the billing from the account's credit balance and
// writes the negative ledger entry.
func (s *service) PayUsingCredit(ctx context.Context, id int64) (billingdomain.Billing, error) {
	var billing billingdomain.Billing

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lockUnpaid(ctx, tx, id)
		if err != nil {
			return err
		}

		particulars, err := locked.ParticularLines()
		if err != nil {
			return err
		}
		total := particulars.Total()

		remaining, err := s.accounts.SumCredits(ctx, tx, locked.AccountID)
		if err != nil {
			return err
		}
		if remaining.LessThan(total) {
			return billingdomain.ErrInsufficientCredit
		}

		locked.BillingStatusID = billingdomain.BillingStatusPaid
		locked.PaymentMethod = ptr(billingdomain.PaymentMethodCredit)
		if err := s.repo.Update(ctx, tx, locked); err != nil {
			return err
		}

		if err := s.accounts.InsertCredit(ctx, tx, &accountdomain.AccountCredit{
			ID:        s.genID.Generate().Int64(),
			AccountID: locked.AccountID,
			Amount:    total.Neg(),
		}); err != nil {
			return err
		}

		billing = *locked
		return nil
	})
	if err != nil {
		return billingdomain.Billing{}, err
	}

	s.metrics.PaymentRecorded(billingdomain.PaymentMethodCredit)
	return billing, nil
}

// InitiateGatewayPayment creates a checkout source for the grossed-up total
// and parks the billing in Pending. The gateway call happens outside the
// transaction; the guard is re-checked under lock before the reference is
// stored.
func (s *service) InitiateGatewayPayment(ctx context.Context, id int64, redirect billingdomain.GatewayRedirect) (string, error) {
	if s.gateway == nil {
		return "", billingdomain.ErrGatewayUnavailable
	}

	billing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return "", err
	}
	if billing == nil {
		return "", billingdomain.ErrBillingNotFound
	}
	if billing.IsPaid() {
		return "", billingdomain.ErrAlreadyPaid
	}

	account, err := s.accounts.FindByID(ctx, s.db, billing.AccountID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", billingdomain.ErrAccountNotFound
	}

	particulars, err := billing.ParticularLines()
	if err != nil {
		return "", err
	}
	total := particulars.Total()

	source, err := s.gateway.CreateSource(ctx, paymentdomain.CreateSourceRequest{
		Type:                "gcash",
		Amount:              grossUp(total, s.billingCfg.Get().ServiceChargePercent),
		Currency:            "PHP",
		Description:         fmt.Sprintf("Bill for the Month of %s %d: %s", billing.Month(), billing.Year(), total.StringFixed(2)),
		StatementDescriptor: "NavLink",
		SuccessURL:          redirect.SuccessURL,
		FailedURL:           redirect.FailedURL,
		Billing: paymentdomain.BillingDetails{
			Name:  account.Customer.FullName(),
			Phone: deref(account.Customer.ContactNumber),
			Email: deref(account.Customer.Email),
			Line1: deref(account.Customer.Barangay),
			City:  deref(account.Customer.City),
		},
	})
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if locked == nil {
			return billingdomain.ErrBillingNotFound
		}
		if locked.IsPaid() {
			return billingdomain.ErrAlreadyPaid
		}

		locked.PaymongoReferenceNumber = &source.ID
		locked.BillingStatusID = billingdomain.BillingStatusPending
		return s.repo.Update(ctx, tx, locked)
	})
	if err != nil {
		return "", err
	}

	s.log.Info("gateway checkout created",
		zap.Int64("billing_id", id),
		zap.String("source_id", source.ID),
	)

	return source.CheckoutURL, nil
}

// ConfirmGatewayPayment lands the checkout redirect. A pay_ reference is an
// idempotent no-op; anything other than src_ is rejected.
func (s *service) ConfirmGatewayPayment(ctx context.Context, id int64) (billingdomain.GatewayConfirmation, error) {
	if s.gateway == nil {
		return billingdomain.GatewayConfirmation{}, billingdomain.ErrGatewayUnavailable
	}

	billing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return billingdomain.GatewayConfirmation{}, err
	}
	if billing == nil {
		return billingdomain.GatewayConfirmation{}, billingdomain.ErrBillingNotFound
	}

	reference := deref(billing.PaymongoReferenceNumber)
	if strings.HasPrefix(reference, "pay_") {
		return billingdomain.GatewayConfirmation{Billing: *billing, AlreadyPaid: true}, nil
	}
	if !strings.HasPrefix(reference, "src_") {
		return billingdomain.GatewayConfirmation{}, billingdomain.ErrInvalidReference
	}

	source, err := s.gateway.FindSource(ctx, reference)
	if err != nil {
		return billingdomain.GatewayConfirmation{}, err
	}

	payment, err := s.gateway.CreatePayment(ctx, paymentdomain.CreatePaymentRequest{
		Amount:              source.Amount,
		Currency:            source.Currency,
		Description:         source.Description,
		StatementDescriptor: source.StatementDescriptor,
		SourceID:            source.ID,
	})
	if err != nil {
		return billingdomain.GatewayConfirmation{}, err
	}

	if !strings.EqualFold(payment.Status, "paid") {
		return billingdomain.GatewayConfirmation{Billing: *billing}, nil
	}

	var settled billingdomain.Billing
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if locked == nil {
			return billingdomain.ErrBillingNotFound
		}

		locked.PaymongoReferenceNumber = &payment.ID
		locked.BillingStatusID = billingdomain.BillingStatusPaid
		locked.PaymentMethod = ptr(billingdomain.PaymentMethodGcash)
		if err := s.repo.Update(ctx, tx, locked); err != nil {
			return err
		}

		settled = *locked
		return nil
	})
	if err != nil {
		return billingdomain.GatewayConfirmation{}, err
	}

	s.metrics.PaymentRecorded(billingdomain.PaymentMethodGcash)
	return billingdomain.GatewayConfirmation{Billing: settled, Settled: true}, nil
}

// ChangePlan repoints the account's plan when the effective date falls inside
// the billing period. It never recomputes; Reprocess is the explicit path for
// that.
func (s *service) ChangePlan(ctx context.Context, req billingdomain.ChangePlanRequest) (billingdomain.Billing, error) {
	var billing billingdomain.Billing

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lockUnpaid(ctx, tx, req.BillingID)
		if err != nil {
			return err
		}

		plan, err := s.accounts.FindPlannedApplication(ctx, tx, req.PlannedApplicationID)
		if err != nil {
			return err
		}
		if plan == nil {
			return billingdomain.ErrPlanNotFound
		}

		if locked.DateStart == nil || locked.DateEnd == nil {
			return billingdomain.ErrDateOutsidePeriod
		}
		if req.DateChange.Before(*locked.DateStart) || req.DateChange.After(*locked.DateEnd) {
			return billingdomain.ErrDateOutsidePeriod
		}

		if err := s.accounts.UpdatePlan(ctx, tx, locked.AccountID, plan.ID); err != nil {
			return err
		}

		billing = *locked
		return nil
	})
	if err != nil {
		return billingdomain.Billing{}, err
	}

	return billing, nil
}

// Reprocess recomputes particulars from the now-current account and captures
// a fresh upgrade snapshot. Unpaid billings only.
func (s *service) Reprocess(ctx context.Context, id int64) (billingdomain.Billing, error) {
	var billing billingdomain.Billing

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lockUnpaid(ctx, tx, id)
		if err != nil {
			return err
		}

		agg, _, err := s.aggregate(ctx, tx, locked.AccountID)
		if err != nil {
			return err
		}

		billingType, err := s.findBillingType(ctx, tx, locked.BillingTypeID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		particulars, period, err := computeParticulars(agg, locked.BillingTypeID, billingType.Name, now, s.billingCfg.Get())
		if err != nil {
			return err
		}

		rawParticulars, err := billingdomain.EncodeParticulars(particulars)
		if err != nil {
			return err
		}

		locked.Particulars = rawParticulars
		locked.DateStart = period.DateStart
		locked.DateEnd = period.DateEnd
		locked.DateCutOff = period.DateCutOff

		if err := applySnapshot(locked, buildSnapshot(agg, period, now), snapshotUpgrade); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, tx, locked); err != nil {
			return err
		}

		billing = *locked
		return nil
	})
	if err != nil {
		return billingdomain.Billing{}, err
	}

	return billing, nil
}

// SendNotification emails the bill on explicit request. Unpaid billings only;
// a missing email is an informational outcome.
func (s *service) SendNotification(ctx context.Context, id int64) (billingdomain.NotificationResult, error) {
	billing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return billingdomain.NotificationResult{}, err
	}
	if billing == nil {
		return billingdomain.NotificationResult{}, billingdomain.ErrBillingNotFound
	}
	if !billing.IsUnpaid() {
		if billing.IsPaid() {
			return billingdomain.NotificationResult{}, billingdomain.ErrAlreadyPaid
		}
		return billingdomain.NotificationResult{}, billingdomain.ErrNotUnpaid
	}

	account, err := s.accounts.FindByID(ctx, s.db, billing.AccountID)
	if err != nil {
		return billingdomain.NotificationResult{}, err
	}
	if account == nil {
		return billingdomain.NotificationResult{}, billingdomain.ErrAccountNotFound
	}

	email := deref(account.Customer.Email)
	if email == "" {
		s.metrics.NotificationResult("no_email")
		return billingdomain.NotificationResult{NoEmail: true}, nil
	}

	if err := s.notifier.NotifyNewBill(ctx, email, account.Customer.FullName(), *billing); err != nil {
		s.metrics.NotificationResult("failed")
		return billingdomain.NotificationResult{}, err
	}

	now := s.clock.Now()
	billing.NotifiedAt = &now
	if err := s.repo.Update(ctx, s.db, billing); err != nil {
		return billingdomain.NotificationResult{}, err
	}

	s.metrics.NotificationResult("sent")
	return billingdomain.NotificationResult{Sent: true, RecipientTo: email}, nil
}

// RealAccount resolves the account view with strict precedence: upgrade
// snapshot, else primary snapshot, else a live read. The live branch exists
// only for records that predate their first snapshot.
func (s *service) RealAccount(ctx context.Context, billing billingdomain.Billing) (billingdomain.SnapshotDocument, error) {
	if len(billing.UpgradeAccountSnapshot) > 0 {
		doc, err := billingdomain.DecodeSnapshot(billing.UpgradeAccountSnapshot)
		if err != nil {
			return billingdomain.SnapshotDocument{}, err
		}
		return *doc, nil
	}
	if len(billing.AccountSnapshot) > 0 {
		doc, err := billingdomain.DecodeSnapshot(billing.AccountSnapshot)
		if err != nil {
			return billingdomain.SnapshotDocument{}, err
		}
		return *doc, nil
	}

	agg, _, err := s.aggregate(ctx, s.db, billing.AccountID)
	if err != nil {
		return billingdomain.SnapshotDocument{}, err
	}
	period := Period{DateStart: billing.DateStart, DateEnd: billing.DateEnd, DateCutOff: billing.DateCutOff}
	return buildSnapshot(agg, period, s.clock.Now()), nil
}

// aggregate reads the account and its credit balance through the supplied
// handle so callers can keep it inside their transaction.
func (s *service) aggregate(ctx context.Context, db *gorm.DB, accountID int64) (accountdomain.Aggregate, *accountdomain.Account, error) {
	account, err := s.accounts.FindByID(ctx, db, accountID)
	if err != nil {
		return accountdomain.Aggregate{}, nil, err
	}
	if account == nil {
		return accountdomain.Aggregate{}, nil, billingdomain.ErrAccountNotFound
	}

	credits, err := s.accounts.SumCredits(ctx, db, accountID)
	if err != nil {
		return accountdomain.Aggregate{}, nil, err
	}

	return accountdomain.AggregateFromAccount(*account, credits), account, nil
}

func (s *service) findBillingType(ctx context.Context, db *gorm.DB, id int64) (*billingdomain.BillingType, error) {
	var billingType billingdomain.BillingType
	err := db.WithContext(ctx).First(&billingType, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billingdomain.ErrInvalidBillingType
		}
		return nil, err
	}
	return &billingType, nil
}

// lockUnpaid loads the billing under a row lock and enforces the unpaid
// guard shared by the settling actions.
func (s *service) lockUnpaid(ctx context.Context, tx *gorm.DB, id int64) (*billingdomain.Billing, error) {
	locked, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if locked == nil {
		return nil, billingdomain.ErrBillingNotFound
	}
	if locked.IsPaid() {
		return nil, billingdomain.ErrAlreadyPaid
	}
	if !locked.IsUnpaid() {
		return nil, billingdomain.ErrNotUnpaid
	}
	return locked, nil
}

// creditQualifyingParticulars turns advance-payment lines into positive
// account credits. Both the contract-period label and the literal deposit
// label are matched case-insensitively, as independent checks.
func (s *service) creditQualifyingParticulars(ctx context.Context, tx *gorm.DB, billing *billingdomain.Billing) error {
	account, err := s.accounts.FindByID(ctx, tx, billing.AccountID)
	if err != nil {
		return err
	}
	if account == nil {
		return billingdomain.ErrAccountNotFound
	}

	var advanceLabel string
	for _, cp := range account.ContractPeriods {
		if cp.ID == accountdomain.ContractPeriodOneMonthAdvance {
			advanceLabel = cp.Name
			break
		}
	}
	if advanceLabel == "" {
		return nil
	}

	particulars, err := billing.ParticularLines()
	if err != nil {
		return err
	}

	for _, particular := range particulars {
		description := strings.ToLower(particular.Description)

		if strings.Contains(description, strings.ToLower(advanceLabel)) {
			if err := s.insertCredit(ctx, tx, billing.AccountID, particular.Amount); err != nil {
				return err
			}
		}
		if strings.Contains(description, strings.ToLower(depositCreditLabel)) {
			if err := s.insertCredit(ctx, tx, billing.AccountID, particular.Amount); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *service) insertCredit(ctx context.Context, tx *gorm.DB, accountID int64, amount decimal.Decimal) error {
	return s.accounts.InsertCredit(ctx, tx, &accountdomain.AccountCredit{
		ID:        s.genID.Generate().Int64(),
		AccountID: accountID,
		Amount:    amount,
	})
}

// fencePay takes the optional redis lock. A held lock means another pay is in
// flight; redis errors fall through to the row lock.
func (s *service) fencePay(ctx context.Context, id int64) (release func(), fenced bool, err error) {
	if s.locker == nil {
		return nil, false, nil
	}

	key := fmt.Sprintf("billing:pay:%d", id)
	token, ok, lockErr := s.locker.TryLock(ctx, key, payLockTTL)
	if lockErr != nil {
		s.log.Warn("pay lock unavailable, relying on row lock", zap.Error(lockErr))
		return nil, false, nil
	}
	if !ok {
		return nil, false, billingdomain.ErrAlreadyPaid
	}

	return func() {
		if err := s.locker.Release(ctx, key, token); err != nil {
			s.log.Warn("pay lock release failed", zap.Error(err))
		}
	}, true, nil
}

// notifyNewBill runs after a successful create; failures are logged, never
// surfaced.
func (s *service) notifyNewBill(ctx context.Context, billing *billingdomain.Billing) {
	account, err := s.accounts.FindByID(ctx, s.db, billing.AccountID)
	if err != nil || account == nil {
		s.log.Warn("new bill notification skipped", zap.Int64("billing_id", billing.ID), zap.Error(err))
		return
	}

	email := deref(account.Customer.Email)
	if email == "" {
		s.metrics.NotificationResult("no_email")
		return
	}

	if err := s.notifier.NotifyNewBill(ctx, email, account.Customer.FullName(), *billing); err != nil {
		s.metrics.NotificationResult("failed")
		s.log.Warn("new bill notification failed", zap.Int64("billing_id", billing.ID), zap.Error(err))
		return
	}

	now := s.clock.Now()
	billing.NotifiedAt = &now
	if err := s.repo.Update(ctx, s.db, billing); err != nil {
		s.log.Warn("notified_at stamp failed", zap.Int64("billing_id", billing.ID), zap.Error(err))
		return
	}

	s.metrics.NotificationResult("sent")
}

// grossUp shifts the gateway's percentage fee onto the payer:
// total / (1 - percent/100).
func grossUp(total decimal.Decimal, percent float64) decimal.Decimal {
	if percent <= 0 {
		return total
	}
	rate := decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100))
	return total.Div(decimal.NewFromInt(1).Sub(rate)).Round(2)
}

func billingTypeLabel(id int64) string {
	switch id {
	case billingdomain.BillingTypeInstallment:
		return "installment"
	case billingdomain.BillingTypeMonthly:
		return "monthly"
	default:
		return "unknown"
	}
}

func ptr[T any](v T) *T { return &v }

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
