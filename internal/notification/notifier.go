// Package notification delivers the new-bill email. A missing customer email
// is an informational outcome, never an error.
package notification

import (
	"context"
	"fmt"
	"strings"

	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	"github.com/navlink/navlink/internal/providers/email"
	"go.uber.org/zap"
)

type BillNotifier struct {
	provider email.Provider
	log      *zap.Logger
}

func NewBillNotifier(provider email.Provider, log *zap.Logger) *BillNotifier {
	return &BillNotifier{
		provider: provider,
		log:      log.Named("notification"),
	}
}

func (n *BillNotifier) NotifyNewBill(ctx context.Context, to, customerName string, billing billingdomain.Billing) error {
	particulars, err := billing.ParticularLines()
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Your bill for %s %d", billing.Month(), billing.Year())

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Hi %s,</p>", customerName)
	fmt.Fprintf(&body, "<p>Your bill for %s %d is ready.</p>", billing.Month(), billing.Year())
	if period := billing.BillingPeriodDetails(); period != "" {
		fmt.Fprintf(&body, "<p>Billing period: %s</p>", period)
	}
	body.WriteString("<ul>")
	for _, particular := range particulars {
		fmt.Fprintf(&body, "<li>%s: %s</li>", particular.Description, particular.Amount.StringFixed(2))
	}
	body.WriteString("</ul>")
	fmt.Fprintf(&body, "<p><strong>Total: %s</strong></p>", particulars.Total().StringFixed(2))

	if err := n.provider.Send(ctx, []string{to}, subject, body.String()); err != nil {
		return err
	}

	n.log.Info("new bill notification sent",
		zap.Int64("billing_id", billing.ID),
		zap.String("to", to),
	)
	return nil
}
