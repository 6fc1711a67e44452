package pdf

import (
	"context"
	"io"
)

// StatementData is everything the bill statement renders, already formatted.
// It is derived purely from a billing record and its resolved snapshot.
type StatementData struct {
	CustomerName   string
	AccountDetails string
	PlanDetails    string
	BillingPeriod  string
	StatementDate  string
	Lines          []StatementLine
	Total          string
}

type StatementLine struct {
	Description string
	Amount      string
}

type Provider interface {
	GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error) {
	return nil, nil
}
