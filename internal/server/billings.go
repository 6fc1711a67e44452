package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	"github.com/navlink/navlink/internal/providers/pdf"
	"github.com/samber/lo"
)

// billingResponse flattens a billing row plus its derived display fields into
// the shape the admin screens consume.
type billingResponse struct {
	ID                      int64                     `json:"id"`
	AccountID               int64                     `json:"accountId"`
	BillingTypeID           int64                     `json:"billingTypeId"`
	BillingStatusID         int64                     `json:"billingStatusId"`
	DateStart               *time.Time                `json:"dateStart,omitempty"`
	DateEnd                 *time.Time                `json:"dateEnd,omitempty"`
	DateCutOff              *time.Time                `json:"dateCutOff,omitempty"`
	Particulars             billingdomain.Particulars `json:"particulars"`
	Total                   string                    `json:"total"`
	ParticularDetails       string                    `json:"particularDetails"`
	BillingPeriodDetails    string                    `json:"billingPeriodDetails"`
	PaymongoReferenceNumber *string                   `json:"paymongoReferenceNumber,omitempty"`
	PaymentMethod           *string                   `json:"paymentMethod,omitempty"`
	NotifiedAt              *time.Time                `json:"notifiedAt,omitempty"`
	CreatedAt               time.Time                 `json:"createdAt"`
}

func toBillingResponse(b billingdomain.Billing) (billingResponse, error) {
	particulars, err := b.ParticularLines()
	if err != nil {
		return billingResponse{}, err
	}
	details, err := b.ParticularDetails()
	if err != nil {
		return billingResponse{}, err
	}
	return billingResponse{
		ID:                      b.ID,
		AccountID:               b.AccountID,
		BillingTypeID:           b.BillingTypeID,
		BillingStatusID:         b.BillingStatusID,
		DateStart:               b.DateStart,
		DateEnd:                 b.DateEnd,
		DateCutOff:              b.DateCutOff,
		Particulars:             particulars,
		Total:                   particulars.Total().StringFixed(2),
		ParticularDetails:       details,
		BillingPeriodDetails:    b.BillingPeriodDetails(),
		PaymongoReferenceNumber: b.PaymongoReferenceNumber,
		PaymentMethod:           b.PaymentMethod,
		NotifiedAt:              b.NotifiedAt,
		CreatedAt:               b.CreatedAt,
	}, nil
}

func parseIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidRequest
	}
	return id, nil
}

func (s *Server) CreateBilling(c *gin.Context) {
	var req billingdomain.CreateBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	billing, err := s.billingSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := toBillingResponse(billing)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListBillings(c *gin.Context) {
	var req billingdomain.ListBillingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	billings, err := s.billingSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]billingResponse, 0, len(billings))
	for _, b := range billings {
		item, err := toBillingResponse(b)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		resp = append(resp, item)
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBilling(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	billing, err := s.billingSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := toBillingResponse(billing)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PayBilling(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.billingSvc.Pay(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "Billing has been settled."})
}

func (s *Server) PayBillingUsingCredit(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.billingSvc.PayUsingCredit(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "Billing has been settled using account credits."})
}

func (s *Server) ChangeBillingPlan(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req billingdomain.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.BillingID = id

	billing, err := s.billingSvc.ChangePlan(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := toBillingResponse(billing)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "Plan change applied to the billing period.", "data": resp})
}

func (s *Server) ReprocessBilling(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	billing, err := s.billingSvc.Reprocess(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := toBillingResponse(billing)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "Billing has been reprocessed.", "data": resp})
}

func (s *Server) SendBillingNotification(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.billingSvc.SendNotification(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if result.NoEmail {
		c.JSON(http.StatusOK, gin.H{"msg": "The account has no email address on file."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": fmt.Sprintf("Notification sent to %s.", result.RecipientTo)})
}

func (s *Server) GetBillingStatement(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	billing, err := s.billingSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.billingSvc.RealAccount(c.Request.Context(), billing)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	particulars, err := billing.ParticularLines()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := pdf.StatementData{
		CustomerName:   doc.CustomerName,
		AccountDetails: fmt.Sprintf("%s: %s - %s", doc.CustomerName, doc.SubscriptionName, doc.LocationName),
		PlanDetails:    fmt.Sprintf("%s %d Mbps", doc.PlanTypeName, doc.PlanMbps),
		BillingPeriod:  billing.BillingPeriodDetails(),
		StatementDate:  s.clk.Now().Format("Jan 2, 2006"),
		Lines: lo.Map(particulars, func(p billingdomain.Particular, _ int) pdf.StatementLine {
			return pdf.StatementLine{Description: p.Description, Amount: p.Amount.StringFixed(2)}
		}),
		Total: particulars.Total().StringFixed(2),
	}

	reader, err := s.pdfSvc.GenerateStatement(c.Request.Context(), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	buf, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=billing-%d.pdf", billing.ID))
	c.Data(http.StatusOK, "application/pdf", buf)
}
