package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/navlink/navlink/internal/account/domain"
	accountrepo "github.com/navlink/navlink/internal/account/repository"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	billingrepo "github.com/navlink/navlink/internal/billing/repository"
	"github.com/navlink/navlink/internal/clock"
	"github.com/navlink/navlink/internal/config"
	paymentdomain "github.com/navlink/navlink/internal/payment/domain"
	"github.com/navlink/navlink/internal/seed"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	calls []string
	err   error
}

func (f *fakeNotifier) NotifyNewBill(ctx context.Context, to, customerName string, billing billingdomain.Billing) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, to)
	return nil
}

// fakeGateway settles every source immediately and records what it was asked
// to create.
type fakeGateway struct {
	lastSource  paymentdomain.CreateSourceRequest
	lastPayment paymentdomain.CreatePaymentRequest
	sources     map[string]*paymentdomain.Source
	seq         int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sources: map[string]*paymentdomain.Source{}}
}

func (f *fakeGateway) CreateSource(ctx context.Context, req paymentdomain.CreateSourceRequest) (*paymentdomain.Source, error) {
	f.seq++
	f.lastSource = req
	source := &paymentdomain.Source{
		ID:                  fmt.Sprintf("src_%06d", f.seq),
		Type:                req.Type,
		Status:              "pending",
		Amount:              req.Amount,
		Currency:            req.Currency,
		Description:         req.Description,
		StatementDescriptor: req.StatementDescriptor,
		CheckoutURL:         fmt.Sprintf("https://checkout.example/%06d", f.seq),
	}
	f.sources[source.ID] = source
	return source, nil
}

func (f *fakeGateway) FindSource(ctx context.Context, id string) (*paymentdomain.Source, error) {
	source, ok := f.sources[id]
	if !ok {
		return nil, paymentdomain.ErrSourceNotFound
	}
	return source, nil
}

func (f *fakeGateway) CreatePayment(ctx context.Context, req paymentdomain.CreatePaymentRequest) (*paymentdomain.Payment, error) {
	f.seq++
	f.lastPayment = req
	return &paymentdomain.Payment{ID: fmt.Sprintf("pay_%06d", f.seq), Status: "paid"}, nil
}

func stripForUpdate(d *gorm.DB) {
	sql := d.Statement.SQL.String()
	if strings.Contains(sql, "FOR UPDATE") {
		newSQL := strings.ReplaceAll(sql, "FOR UPDATE", "")
		d.Statement.SQL.Reset()
		d.Statement.SQL.WriteString(newSQL)
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// SQLite has no row locks; drop the FOR UPDATE suffix.
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("sqlite_strip_for_update", stripForUpdate))
	require.NoError(t, db.Callback().Row().Before("gorm:row").Register("sqlite_strip_for_update_row", stripForUpdate))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	statements := []string{
		`CREATE TABLE customers (
			id INTEGER PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT,
			contact_number TEXT,
			barangay TEXT,
			city TEXT,
			province TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE locations (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE planned_application_types (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE planned_applications (
			id INTEGER PRIMARY KEY,
			location_id INTEGER NOT NULL,
			planned_application_type_id INTEGER NOT NULL,
			mbps INTEGER NOT NULL,
			price NUMERIC NOT NULL
		)`,
		`CREATE TABLE subscriptions (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE account_statuses (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE otcs (id INTEGER PRIMARY KEY, name TEXT NOT NULL, amount NUMERIC NOT NULL)`,
		`CREATE TABLE contract_periods (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE accounts (
			id INTEGER PRIMARY KEY,
			customer_id INTEGER NOT NULL,
			planned_application_id INTEGER NOT NULL,
			subscription_id INTEGER NOT NULL,
			account_status_id INTEGER NOT NULL,
			installed_date DATETIME,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE account_otc (account_id INTEGER NOT NULL, otc_id INTEGER NOT NULL)`,
		`CREATE TABLE account_contract_period (account_id INTEGER NOT NULL, contract_period_id INTEGER NOT NULL)`,
		`CREATE TABLE account_credits (
			id INTEGER PRIMARY KEY,
			account_id INTEGER NOT NULL,
			amount NUMERIC NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE account_service_interruptions (
			id INTEGER PRIMARY KEY,
			account_id INTEGER NOT NULL,
			date_start DATETIME NOT NULL,
			date_end DATETIME NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE billing_types (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE billing_statuses (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE billings (
			id INTEGER PRIMARY KEY,
			account_id INTEGER NOT NULL,
			billing_type_id INTEGER NOT NULL,
			billing_status_id INTEGER NOT NULL DEFAULT 2,
			date_start DATETIME,
			date_end DATETIME,
			date_cut_off DATETIME,
			particulars TEXT NOT NULL,
			account_snapshot TEXT,
			upgrade_account_snapshot TEXT,
			paymongo_reference_number TEXT,
			payment_method TEXT,
			notified_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	require.NoError(t, seed.EnsureReferenceRows(db))
	return db
}

type billingTestEnv struct {
	db       *gorm.DB
	svc      *service
	clk      *clock.FakeClock
	node     *snowflake.Node
	notifier *fakeNotifier
	gateway  *fakeGateway
}

func setupBillingTest(t *testing.T) *billingTestEnv {
	t.Helper()

	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC))
	notifier := &fakeNotifier{}
	gateway := newFakeGateway()

	svc := &service{
		db:         db,
		log:        zaptest.NewLogger(t),
		genID:      node,
		clock:      clk,
		repo:       billingrepo.Provide(),
		accounts:   accountrepo.Provide(),
		billingCfg: &config.BillingConfigHolder{},
		notifier:   notifier,
		gateway:    gateway,
	}

	return &billingTestEnv{db: db, svc: svc, clk: clk, node: node, notifier: notifier, gateway: gateway}
}

type accountFixture struct {
	installedDate   *time.Time
	planTypeID      int64
	price           int64
	email           *string
	otcs            []accountdomain.Otc
	oneMonthAdvance bool
}

func (env *billingTestEnv) seedAccount(t *testing.T, fx accountFixture) int64 {
	t.Helper()

	if fx.planTypeID == 0 {
		fx.planTypeID = accountdomain.PlannedApplicationTypeFiber
	}
	if fx.price == 0 {
		fx.price = 900
	}

	customer := accountdomain.Customer{
		ID:        env.node.Generate().Int64(),
		FirstName: "Juan",
		LastName:  "Cruz",
		Email:     fx.email,
	}
	require.NoError(t, env.db.Create(&customer).Error)

	location := accountdomain.Location{ID: env.node.Generate().Int64(), Name: "Poblacion"}
	require.NoError(t, env.db.Create(&location).Error)

	plan := accountdomain.PlannedApplication{
		ID:                       env.node.Generate().Int64(),
		LocationID:               location.ID,
		PlannedApplicationTypeID: fx.planTypeID,
		Mbps:                     50,
		Price:                    decimal.NewFromInt(fx.price),
	}
	require.NoError(t, env.db.Create(&plan).Error)

	subscription := accountdomain.Subscription{ID: env.node.Generate().Int64(), Name: "Postpaid"}
	require.NoError(t, env.db.Create(&subscription).Error)

	account := accountdomain.Account{
		ID:                   env.node.Generate().Int64(),
		CustomerID:           customer.ID,
		PlannedApplicationID: plan.ID,
		SubscriptionID:       subscription.ID,
		AccountStatusID:      accountdomain.AccountStatusInstalled,
		InstalledDate:        fx.installedDate,
	}
	require.NoError(t, env.db.Create(&account).Error)

	for _, otc := range fx.otcs {
		otc.ID = env.node.Generate().Int64()
		require.NoError(t, env.db.Create(&otc).Error)
		require.NoError(t, env.db.Exec(
			"INSERT INTO account_otc (account_id, otc_id) VALUES (?, ?)", account.ID, otc.ID,
		).Error)
	}

	if fx.oneMonthAdvance {
		require.NoError(t, env.db.Exec(
			"INSERT INTO account_contract_period (account_id, contract_period_id) VALUES (?, ?)",
			account.ID, accountdomain.ContractPeriodOneMonthAdvance,
		).Error)
	}

	return account.ID
}

func (env *billingTestEnv) creditBalance(t *testing.T, accountID int64) decimal.Decimal {
	t.Helper()
	balance, err := env.svc.accounts.SumCredits(context.Background(), env.db, accountID)
	require.NoError(t, err)
	return balance
}

func TestCreate_MonthlyFiber(t *testing.T) {
	env := setupBillingTest(t)
	email := "juan@example.com"
	accountID := env.seedAccount(t, accountFixture{email: &email})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	assert.Equal(t, billingdomain.BillingStatusUnpaid, billing.BillingStatusID)
	require.NotNil(t, billing.DateStart)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), billing.DateStart.UTC())
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), billing.DateEnd.UTC())
	assert.Equal(t, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), billing.DateCutOff.UTC())

	particulars, err := billing.ParticularLines()
	require.NoError(t, err)
	require.Len(t, particulars, 1)
	assert.Equal(t, "900.00", particulars.Total().StringFixed(2))

	// The primary snapshot is frozen at creation.
	require.NotEmpty(t, billing.AccountSnapshot)
	assert.Empty(t, billing.UpgradeAccountSnapshot)

	// Best-effort new bill email went out.
	assert.Equal(t, []string{email}, env.notifier.calls)
}

func TestCreate_UnknownAccount(t *testing.T) {
	env := setupBillingTest(t)

	_, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     12345,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	assert.ErrorIs(t, err, billingdomain.ErrAccountNotFound)
}

func TestSnapshot_ImmuneToLaterPlanPriceChange(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Exec("UPDATE planned_applications SET price = 9999").Error)

	doc, err := env.svc.RealAccount(context.Background(), billing)
	require.NoError(t, err)
	assert.Equal(t, "900", doc.PlanPrice.String())
}

func TestPay_SettlesAndCreditsAdvance(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{
		otcs: []accountdomain.Otc{
			{Name: "Installation Fee", Amount: decimal.NewFromInt(1500)},
		},
		oneMonthAdvance: true,
	})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeInstallment,
	})
	require.NoError(t, err)
	assert.Nil(t, billing.DateStart)

	paid, err := env.svc.Pay(context.Background(), billing.ID)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.BillingStatusPaid, paid.BillingStatusID)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, billingdomain.PaymentMethodCash, *paid.PaymentMethod)

	// The advance line became a positive account credit.
	assert.Equal(t, "900", env.creditBalance(t, accountID).String())
}

func TestPay_SecondAttemptRejectedWithoutDoubleCredit(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{oneMonthAdvance: true})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeInstallment,
	})
	require.NoError(t, err)

	_, err = env.svc.Pay(context.Background(), billing.ID)
	require.NoError(t, err)
	balance := env.creditBalance(t, accountID)

	_, err = env.svc.Pay(context.Background(), billing.ID)
	assert.ErrorIs(t, err, billingdomain.ErrAlreadyPaid)
	assert.True(t, balance.Equal(env.creditBalance(t, accountID)))
}

func TestPay_NoAdvanceContractNoCredits(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	_, err = env.svc.Pay(context.Background(), billing.ID)
	require.NoError(t, err)
	assert.True(t, env.creditBalance(t, accountID).IsZero())
}

func TestPayUsingCredit_DrawsDownBalance(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	require.NoError(t, env.db.Create(&accountdomain.AccountCredit{
		ID:        env.node.Generate().Int64(),
		AccountID: accountID,
		Amount:    decimal.NewFromInt(900),
	}).Error)

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	paid, err := env.svc.PayUsingCredit(context.Background(), billing.ID)
	require.NoError(t, err)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, billingdomain.PaymentMethodCredit, *paid.PaymentMethod)

	// 900 in, 900 out.
	assert.True(t, env.creditBalance(t, accountID).IsZero())
}

func TestPayUsingCredit_InsufficientBalance(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	require.NoError(t, env.db.Create(&accountdomain.AccountCredit{
		ID:        env.node.Generate().Int64(),
		AccountID: accountID,
		Amount:    decimal.NewFromInt(100),
	}).Error)

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	_, err = env.svc.PayUsingCredit(context.Background(), billing.ID)
	assert.ErrorIs(t, err, billingdomain.ErrInsufficientCredit)

	// Billing stays unpaid, balance untouched.
	current, err := env.svc.Get(context.Background(), billing.ID)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.BillingStatusUnpaid, current.BillingStatusID)
	assert.Equal(t, "100", env.creditBalance(t, accountID).String())
}

func TestGatewayPayment_InitiateThenConfirm(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	checkoutURL, err := env.svc.InitiateGatewayPayment(context.Background(), billing.ID, billingdomain.GatewayRedirect{
		SuccessURL: "https://crm.example/ok",
		FailedURL:  "https://crm.example/fail",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, checkoutURL)

	// The checkout amount is grossed up so the billed 900 survives the fee.
	assert.Equal(t, "923.08", env.gateway.lastSource.Amount.String())
	assert.Equal(t, "PHP", env.gateway.lastSource.Currency)
	assert.Equal(t, "Bill for the Month of January 2026: 900.00", env.gateway.lastSource.Description)

	pending, err := env.svc.Get(context.Background(), billing.ID)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.BillingStatusPending, pending.BillingStatusID)
	require.NotNil(t, pending.PaymongoReferenceNumber)
	assert.True(t, strings.HasPrefix(*pending.PaymongoReferenceNumber, "src_"))

	confirmation, err := env.svc.ConfirmGatewayPayment(context.Background(), billing.ID)
	require.NoError(t, err)
	assert.True(t, confirmation.Settled)
	assert.Equal(t, billingdomain.BillingStatusPaid, confirmation.Billing.BillingStatusID)
	require.NotNil(t, confirmation.Billing.PaymentMethod)
	assert.Equal(t, billingdomain.PaymentMethodGcash, *confirmation.Billing.PaymentMethod)
	require.NotNil(t, confirmation.Billing.PaymongoReferenceNumber)
	assert.True(t, strings.HasPrefix(*confirmation.Billing.PaymongoReferenceNumber, "pay_"))

	// The payment echoes the stored source, not fresh input.
	assert.Equal(t, "923.08", env.gateway.lastPayment.Amount.String())
	assert.Equal(t, *pending.PaymongoReferenceNumber, env.gateway.lastPayment.SourceID)

	// Landing on the redirect twice is a no-op.
	again, err := env.svc.ConfirmGatewayPayment(context.Background(), billing.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyPaid)
	assert.False(t, again.Settled)
}

func TestConfirmGatewayPayment_RejectsForeignReference(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&billingdomain.Billing{}).
		Where("id = ?", billing.ID).
		Update("paymongo_reference_number", "tok_999").Error)

	_, err = env.svc.ConfirmGatewayPayment(context.Background(), billing.ID)
	assert.ErrorIs(t, err, billingdomain.ErrInvalidReference)
}

func TestChangePlan_InsidePeriod(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	var location accountdomain.Location
	require.NoError(t, env.db.First(&location).Error)
	upgrade := accountdomain.PlannedApplication{
		ID:                       env.node.Generate().Int64(),
		LocationID:               location.ID,
		PlannedApplicationTypeID: accountdomain.PlannedApplicationTypeFiber,
		Mbps:                     100,
		Price:                    decimal.NewFromInt(1500),
	}
	require.NoError(t, env.db.Create(&upgrade).Error)

	_, err = env.svc.ChangePlan(context.Background(), billingdomain.ChangePlanRequest{
		BillingID:            billing.ID,
		PlannedApplicationID: upgrade.ID,
		DateChange:           time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var account accountdomain.Account
	require.NoError(t, env.db.First(&account, "id = ?", accountID).Error)
	assert.Equal(t, upgrade.ID, account.PlannedApplicationID)

	// ChangePlan never recomputes; the particulars still carry the old rate.
	current, err := env.svc.Get(context.Background(), billing.ID)
	require.NoError(t, err)
	particulars, err := current.ParticularLines()
	require.NoError(t, err)
	assert.Equal(t, "900.00", particulars.Total().StringFixed(2))
}

func TestChangePlan_DateOutsidePeriod(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	var plan accountdomain.PlannedApplication
	require.NoError(t, env.db.First(&plan).Error)

	_, err = env.svc.ChangePlan(context.Background(), billingdomain.ChangePlanRequest{
		BillingID:            billing.ID,
		PlannedApplicationID: plan.ID,
		DateChange:           time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, billingdomain.ErrDateOutsidePeriod)
}

func TestReprocess_RecomputesAndCapturesUpgradeSnapshot(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Exec("UPDATE planned_applications SET price = 1500").Error)

	reprocessed, err := env.svc.Reprocess(context.Background(), billing.ID)
	require.NoError(t, err)

	particulars, err := reprocessed.ParticularLines()
	require.NoError(t, err)
	assert.Equal(t, "1500.00", particulars.Total().StringFixed(2))
	require.NotEmpty(t, reprocessed.UpgradeAccountSnapshot)

	// The upgrade snapshot now wins over the original one.
	doc, err := env.svc.RealAccount(context.Background(), reprocessed)
	require.NoError(t, err)
	assert.Equal(t, "1500", doc.PlanPrice.String())
}

func TestRealAccount_CorruptSnapshotSurfaces(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	billing.AccountSnapshot = datatypes.JSON(`{"version": 1,`)
	_, err = env.svc.RealAccount(context.Background(), billing)
	assert.ErrorIs(t, err, billingdomain.ErrCorruptSnapshot)
}

func TestRealAccount_LiveFallbackForLegacyRows(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	// Records that predate snapshots fall back to a live read.
	billing.AccountSnapshot = nil
	billing.UpgradeAccountSnapshot = nil

	require.NoError(t, env.db.Exec("UPDATE planned_applications SET price = 1200").Error)

	doc, err := env.svc.RealAccount(context.Background(), billing)
	require.NoError(t, err)
	assert.Equal(t, "1200", doc.PlanPrice.String())
}

func TestReprocess_PaidBillingRejected(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	_, err = env.svc.Pay(context.Background(), billing.ID)
	require.NoError(t, err)

	_, err = env.svc.Reprocess(context.Background(), billing.ID)
	assert.ErrorIs(t, err, billingdomain.ErrAlreadyPaid)
}

func TestSendNotification_StampsNotifiedAt(t *testing.T) {
	env := setupBillingTest(t)
	email := "juan@example.com"
	accountID := env.seedAccount(t, accountFixture{email: &email})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	result, err := env.svc.SendNotification(context.Background(), billing.ID)
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Equal(t, email, result.RecipientTo)

	current, err := env.svc.Get(context.Background(), billing.ID)
	require.NoError(t, err)
	assert.NotNil(t, current.NotifiedAt)
}

func TestSendNotification_NoEmailOnFile(t *testing.T) {
	env := setupBillingTest(t)
	accountID := env.seedAccount(t, accountFixture{})

	billing, err := env.svc.Create(context.Background(), billingdomain.CreateBillingRequest{
		AccountID:     accountID,
		BillingTypeID: billingdomain.BillingTypeMonthly,
	})
	require.NoError(t, err)

	result, err := env.svc.SendNotification(context.Background(), billing.ID)
	require.NoError(t, err)
	assert.True(t, result.NoEmail)
	assert.False(t, result.Sent)
}
