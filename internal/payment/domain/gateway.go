// Package domain defines the payment gateway contract the billing lifecycle
// consumes. The core only reads id/status/checkout_url; transport is the
// adapter's business.
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrSourceNotFound = errors.New("gateway_source_not_found")
	ErrInvalidConfig  = errors.New("gateway_invalid_config")
	ErrRequestFailed  = errors.New("gateway_request_failed")
)

// Source is a checkout authorization created at the gateway. IDs carry the
// `src_` prefix.
type Source struct {
	ID                  string
	Type                string
	Status              string
	Amount              decimal.Decimal
	Currency            string
	Description         string
	StatementDescriptor string
	CheckoutURL         string
}

// Payment is a settled charge. IDs carry the `pay_` prefix.
type Payment struct {
	ID     string
	Status string
}

type BillingDetails struct {
	Name  string
	Phone string
	Email string
	Line1 string
	Line2 string
	City  string
}

type CreateSourceRequest struct {
	Type                string
	Amount              decimal.Decimal
	Currency            string
	Description         string
	StatementDescriptor string
	SuccessURL          string
	FailedURL           string
	Billing             BillingDetails
}

type CreatePaymentRequest struct {
	Amount              decimal.Decimal
	Currency            string
	Description         string
	StatementDescriptor string
	SourceID            string
}

type Gateway interface {
	CreateSource(ctx context.Context, req CreateSourceRequest) (*Source, error)
	FindSource(ctx context.Context, id string) (*Source, error)
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Payment, error)
}
