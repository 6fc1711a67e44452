package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBillingNotFound    = errors.New("billing_not_found")
	ErrAccountNotFound    = errors.New("account_not_found")
	ErrPlanNotFound       = errors.New("planned_application_not_found")
	ErrAlreadyPaid        = errors.New("billing_already_paid")
	ErrNotUnpaid          = errors.New("billing_not_unpaid")
	ErrNotPending         = errors.New("billing_not_pending")
	ErrInsufficientCredit = errors.New("insufficient_credit")
	ErrInvalidReference   = errors.New("invalid_gateway_reference")
	ErrInvalidBillingType = errors.New("invalid_billing_type")
	ErrDateOutsidePeriod  = errors.New("date_outside_billing_period")
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
	ErrCorruptSnapshot    = errors.New("corrupt_account_snapshot")
	ErrCorruptParticulars = errors.New("corrupt_particulars")
)

type CreateBillingRequest struct {
	AccountID     int64 `json:"accountId" binding:"required"`
	BillingTypeID int64 `json:"billingTypeId" binding:"required"`
}

type ListBillingsRequest struct {
	AccountID       int64 `form:"accountId"`
	BillingStatusID int64 `form:"billingStatusId"`
	BillingTypeID   int64 `form:"billingTypeId"`
}

type ChangePlanRequest struct {
	BillingID            int64     `json:"-"`
	PlannedApplicationID int64     `json:"plannedApplicationId" binding:"required"`
	DateChange           time.Time `json:"dateChange" binding:"required"`
}

// GatewayRedirect carries the caller's landing URLs for a checkout session.
type GatewayRedirect struct {
	SuccessURL string
	FailedURL  string
}

// GatewayConfirmation reports the outcome of a checkout redirect landing.
type GatewayConfirmation struct {
	Billing     Billing
	AlreadyPaid bool
	Settled     bool
}

// NotificationResult distinguishes "sent" from the non-fatal "no email on
// file" outcome.
type NotificationResult struct {
	Sent        bool
	NoEmail     bool
	RecipientTo string
}

type Service interface {
	Create(ctx context.Context, req CreateBillingRequest) (Billing, error)
	Get(ctx context.Context, id int64) (Billing, error)
	List(ctx context.Context, req ListBillingsRequest) ([]Billing, error)
	Pay(ctx context.Context, id int64) (Billing, error)
	PayUsingCredit(ctx context.Context, id int64) (Billing, error)
	InitiateGatewayPayment(ctx context.Context, id int64, redirect GatewayRedirect) (string, error)
	ConfirmGatewayPayment(ctx context.Context, id int64) (GatewayConfirmation, error)
	ChangePlan(ctx context.Context, req ChangePlanRequest) (Billing, error)
	Reprocess(ctx context.Context, id int64) (Billing, error)
	SendNotification(ctx context.Context, id int64) (NotificationResult, error)
	RealAccount(ctx context.Context, billing Billing) (SnapshotDocument, error)
}
